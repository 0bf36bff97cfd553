package dot

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/goccy/go-graphviz"
)

// DotToImage renders a DOT graph to outfname.<format> and returns the path of
// the image. The DOT source itself is always written to outfname.dot. An
// empty outfname exports to the temporary directory.
func DotToImage(outfname string, format string, dot []byte) (string, error) {
	if outfname == "" {
		outfname = filepath.Join(os.TempDir(), "gotaint_export")
	}

	dotpath := outfname + ".dot"
	if err := os.WriteFile(dotpath, dot, 0644); err != nil {
		return "", err
	}
	log.Println("Exported dot graph to", dotpath)
	if format == "dot" {
		return dotpath, nil
	}

	img := outfname + "." + format
	return img, render(dot, graphviz.Format(format), img)
}

func render(dot []byte, format graphviz.Format, img string) error {
	g := graphviz.New()
	defer g.Close()

	graph, err := graphviz.ParseBytes(dot)
	if err != nil {
		return err
	}
	defer func() {
		if err := graph.Close(); err != nil {
			log.Println(err)
		}
	}()

	return g.RenderFilename(graph, format, img)
}

// graphDefaults are the graph attributes used unless a graph overrides them.
var graphDefaults = DotAttrs{
	"labeljust": "l",
	"fontname":  "Arial",
	"fontsize":  "14",
	"rankdir":   "LR",
	"bgcolor":   "lightgray",
	"penwidth":  "0.5",
	"pad":       "0.0",
	"nodesep":   "0.25",
}

const tmplDot = `{{define "node" -}}
	{{printf "%q [ %s ]" .ID .Attrs}}
{{- end}}

{{- define "cluster" -}}
	{{printf "subgraph %q {" .}}
		{{.Attrs.Lines}}
		{{- range .Nodes}}
		{{template "node" .}}
		{{- end}}
	}
{{- end -}}

digraph TaintFlow {
	label={{printf "%q" .Title}};
	{{.Attrs.Lines}}

	node [shape="ellipse" style="filled" fillcolor="honeydew" fontname="Verdana" penwidth="1.0" margin="0.05,0.0"];

	{{- range .Clusters}}
	{{template "cluster" .}}
	{{- end}}

	{{- range .Nodes}}
	{{template "node" .}}
	{{- end}}

	{{- range .Edges}}
	{{printf "%q -> %q [ %s ]" .From .To .Attrs}}
	{{- end}}
}
`

var dotTemplate = template.Must(template.New("dot").Parse(tmplDot))

// DotCluster is a subgraph drawn as a box around its nodes.
type DotCluster struct {
	ID    string
	Nodes []*DotNode
	Attrs DotAttrs
}

func NewDotCluster(id string) *DotCluster {
	return &DotCluster{
		ID:    id,
		Attrs: make(DotAttrs),
	}
}

// String is the subgraph name. Graphviz only draws subgraphs whose name
// starts with "cluster" as boxes.
func (c *DotCluster) String() string {
	return "cluster_" + c.ID
}

type DotNode struct {
	ID    string
	Attrs DotAttrs
}

func (n *DotNode) String() string {
	return n.ID
}

type DotEdge struct {
	From  *DotNode
	To    *DotNode
	Attrs DotAttrs
}

// DotAttrs are the attributes of a graph element. They are printed in
// sorted order, so the output is deterministic.
type DotAttrs map[string]string

func (p DotAttrs) List() []string {
	l := make([]string, 0, len(p))
	for k, v := range p {
		l = append(l, fmt.Sprintf("%s=%q;", k, v))
	}
	sort.Strings(l)
	return l
}

func (p DotAttrs) String() string {
	return strings.Join(p.List(), " ")
}

func (p DotAttrs) Lines() string {
	return strings.Join(p.List(), "\n\t")
}

type DotGraph struct {
	Title    string
	Attrs    DotAttrs
	Clusters []*DotCluster
	Nodes    []*DotNode
	Edges    []*DotEdge
}

// WriteDot writes the graph in the DOT language. Attributes of the graph
// take precedence over graphDefaults.
func (g *DotGraph) WriteDot(w io.Writer) error {
	attrs := make(DotAttrs, len(graphDefaults)+len(g.Attrs))
	for k, v := range graphDefaults {
		attrs[k] = v
	}
	for k, v := range g.Attrs {
		attrs[k] = v
	}

	view := *g
	view.Attrs = attrs

	var buf bytes.Buffer
	if err := dotTemplate.Execute(&buf, &view); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
