package config

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"go.yaml.in/yaml/v3"
)

// Encode renders a Map as a YAML document with sorted keys. Each value is
// written with its own tag, so a whole-number Float stays a float on reload
// and a Pair is written in flow style.
func Encode(m Map) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(encodeNode(m)); err != nil {
		return nil, oops.Wrapf(fmt.Errorf("%w: %w", ErrParse, err), "encode configuration")
	}
	if err := enc.Close(); err != nil {
		return nil, oops.Wrapf(fmt.Errorf("%w: %w", ErrParse, err), "encode configuration")
	}
	return buf.Bytes(), nil
}

func encodeNode(v Value) *yaml.Node {
	switch t := v.(type) {
	case String:
		return scalarNode("!!str", string(t))
	case Int:
		return scalarNode("!!int", strconv.FormatInt(int64(t), 10))
	case Float:
		return scalarNode("!!float", formatFloat(float64(t)))
	case Bool:
		return scalarNode("!!bool", strconv.FormatBool(bool(t)))
	case Pair:
		return &yaml.Node{
			Kind:    yaml.SequenceNode,
			Style:   yaml.FlowStyle,
			Content: []*yaml.Node{encodeNode(Int(t[0])), encodeNode(Int(t[1]))},
		}
	case List:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range t {
			n.Content = append(n.Content, encodeNode(item))
		}
		return n
	case Map:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range t.Keys() {
			n.Content = append(n.Content, scalarNode("!!str", k), encodeNode(t[k]))
		}
		return n
	default:
		return scalarNode("!!null", "~")
	}
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// formatFloat always leaves a fraction or an exponent in the text.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
