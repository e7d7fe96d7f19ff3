package inspect

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("inspect: unknown output format")

// Formats lists the accepted Render formats.
var Formats = []string{"text", "json", "yaml"}

// Render writes root in format.
func Render(w io.Writer, root *Node, format string) error {
	switch format {
	case "text", "":
		return Text(w, root)
	case "json":
		return JSON(w, root)
	case "yaml":
		return YAML(w, root)
	default:
		return fmt.Errorf("%w: %q (want %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
	}
}

// Text writes an indented outline, one node per line.
func Text(w io.Writer, root *Node) error {
	var b strings.Builder
	writeText(&b, root, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeText(b *strings.Builder, n *Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	label := n.Key
	if label == "" {
		label = "(root)"
	}
	b.WriteString(label)
	switch n.Kind {
	case "leaf":
		b.WriteString(": ")
		b.WriteString(n.Value)
		if n.Type != "" {
			b.WriteString(" <" + n.Type + ">")
		} else {
			b.WriteString(" [" + strconv.Itoa(n.Size) + " bytes]")
		}
	default:
		b.WriteString(" (" + n.Kind + ", " + strconv.Itoa(n.Size) + ")")
	}
	b.WriteByte('\n')
	for _, c := range n.Children {
		writeText(b, c, depth+1)
	}
}

func JSON(w io.Writer, root *Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(root)
}

// YAML writes maps as ordered mappings keyed by their document keys.
func YAML(w io.Writer, root *Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(root)); err != nil {
		return err
	}
	return enc.Close()
}

func yamlNode(n *Node) *yaml.Node {
	switch n.Kind {
	case "map":
		out := &yaml.Node{Kind: yaml.MappingNode}
		for _, c := range n.Children {
			out.Content = append(out.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: c.Key},
				yamlNode(c),
			)
		}
		return out
	case "list":
		out := &yaml.Node{Kind: yaml.SequenceNode}
		for _, c := range n.Children {
			out.Content = append(out.Content, yamlNode(c))
		}
		return out
	default:
		out := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.Value}
		if n.Type == "" {
			out.LineComment = strconv.Itoa(n.Size) + " bytes"
		}
		return out
	}
}
