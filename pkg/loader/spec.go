package loader

import "gopkg.in/yaml.v3"

// unitSpec is one YAML document: a resolved compilation unit.
type unitSpec struct {
	Package   string        `yaml:"package"`
	File      string        `yaml:"file"`
	Source    string        `yaml:"source"`
	Comments  []commentSpec `yaml:"comments"`
	Externals []typeSpec    `yaml:"externals"`
	Types     []typeSpec    `yaml:"types"`
}

type commentSpec struct {
	Start int  `yaml:"start"`
	End   int  `yaml:"end"`
	Line  bool `yaml:"line"` // a // comment; block otherwise
}

// typeSpec declares a class, interface or enum. External types use a
// qualified name and carry signatures only.
type typeSpec struct {
	Name         string         `yaml:"name"`
	Kind         string         `yaml:"kind"`
	Modifiers    []string       `yaml:"modifiers"`
	Annotations  []string       `yaml:"annotations"`
	TypeParams   []string       `yaml:"typeParams"`
	Super        string         `yaml:"super"`
	Interfaces   []string       `yaml:"interfaces"`
	Fields       []fieldSpec    `yaml:"fields"`
	Methods      []methodSpec   `yaml:"methods"`
	Types        []typeSpec     `yaml:"types"`
	Constants    []constantSpec `yaml:"constants"`
	Initializers []initSpec     `yaml:"initializers"`
	Captures     []string       `yaml:"captures"`
	Line         int            `yaml:"line"`
}

type fieldSpec struct {
	Name        string    `yaml:"name"`
	Type        string    `yaml:"type"`
	Modifiers   []string  `yaml:"modifiers"`
	Annotations []string  `yaml:"annotations"`
	Init        yaml.Node `yaml:"init"`
	Constant    yaml.Node `yaml:"constant"`
	Line        int       `yaml:"line"`
}

type methodSpec struct {
	Name        string      `yaml:"name"`
	Ctor        bool        `yaml:"ctor"`
	Returns     string      `yaml:"returns"`
	Params      []paramSpec `yaml:"params"`
	Varargs     bool        `yaml:"varargs"`
	Modifiers   []string    `yaml:"modifiers"`
	Annotations []string    `yaml:"annotations"`
	TypeParams  []string    `yaml:"typeParams"`
	ObjCName    string      `yaml:"objcName"`
	Body        yaml.Node   `yaml:"body"`
	Span        []int       `yaml:"span"`
	Line        int         `yaml:"line"`
}

type paramSpec struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Annotations []string `yaml:"annotations"`
}

type constantSpec struct {
	Name string      `yaml:"name"`
	Args []yaml.Node `yaml:"args"`
	Body *typeSpec   `yaml:"body"`
	Line int         `yaml:"line"`
}

type initSpec struct {
	Static bool      `yaml:"static"`
	Body   yaml.Node `yaml:"body"`
	Line   int       `yaml:"line"`
}

// present reports whether an optional node field was given.
func present(n *yaml.Node) bool {
	return n != nil && n.Kind != 0 && !(n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

// Expression and statement nodes are single-key maps whose key names the
// node kind; these are the shapes of their values.

type callNode struct {
	Recv    yaml.Node   `yaml:"recv"`
	Method  string      `yaml:"method"`
	Args    []yaml.Node `yaml:"args"`
	Super   bool        `yaml:"super"`
	Static  bool        `yaml:"static"`
	Params  []string    `yaml:"params"`  // for methods the unit does not declare
	Returns string      `yaml:"returns"` // likewise
}

type newNode struct {
	Type  string      `yaml:"type"`
	Args  []yaml.Node `yaml:"args"`
	Outer yaml.Node   `yaml:"outer"`
	Body  *typeSpec   `yaml:"body"`
}

type fieldNode struct {
	Of    yaml.Node `yaml:"of"`
	Name  string    `yaml:"name"`
	Super bool      `yaml:"super"`
}

type binaryNode struct {
	Op       string      `yaml:"op"`
	Left     yaml.Node   `yaml:"left"`
	Right    yaml.Node   `yaml:"right"`
	Operands []yaml.Node `yaml:"operands"`
}

type unaryNode struct {
	Op string    `yaml:"op"`
	X  yaml.Node `yaml:"x"`
}

type condNode struct {
	Cond yaml.Node `yaml:"cond"`
	Then yaml.Node `yaml:"then"`
	Else yaml.Node `yaml:"else"`
}

type assignNode struct {
	Op    string    `yaml:"op"`
	To    yaml.Node `yaml:"to"`
	Value yaml.Node `yaml:"value"`
}

// typedNode serves cast and instanceof.
type typedNode struct {
	Type string    `yaml:"type"`
	X    yaml.Node `yaml:"x"`
}

type indexNode struct {
	Array yaml.Node `yaml:"array"`
	Index yaml.Node `yaml:"index"`
}

type newArrayNode struct {
	Type string      `yaml:"type"` // the created array type, e.g. "int[][]"
	Dims []yaml.Node `yaml:"dims"`
	Init yaml.Node   `yaml:"init"`
}

type arrayNode struct {
	Type  string      `yaml:"type"`
	Elems []yaml.Node `yaml:"elems"`
}

type varNode struct {
	Type        string     `yaml:"type"`
	Name        string     `yaml:"name"`
	Init        yaml.Node  `yaml:"init"`
	Vars        []fragNode `yaml:"vars"`
	Modifiers   []string   `yaml:"modifiers"`
	Annotations []string   `yaml:"annotations"`
}

type fragNode struct {
	Name string    `yaml:"name"`
	Init yaml.Node `yaml:"init"`
}

type forNode struct {
	Init   yaml.Node `yaml:"init"`
	Cond   yaml.Node `yaml:"cond"`
	Update yaml.Node `yaml:"update"`
	Body   yaml.Node `yaml:"body"`
}

type foreachNode struct {
	Var  varNode   `yaml:"var"`
	In   yaml.Node `yaml:"in"`
	Body yaml.Node `yaml:"body"`
}

type switchNode struct {
	Expr yaml.Node   `yaml:"expr"`
	Body []yaml.Node `yaml:"body"`
}

type tryNode struct {
	Body    yaml.Node   `yaml:"body"`
	Catch   []catchNode `yaml:"catch"`
	Finally yaml.Node   `yaml:"finally"`
}

type catchNode struct {
	Param paramSpec `yaml:"param"`
	Body  yaml.Node `yaml:"body"`
}

type syncNode struct {
	Lock yaml.Node `yaml:"lock"`
	Body yaml.Node `yaml:"body"`
}

type labeledNode struct {
	Label string    `yaml:"label"`
	Body  yaml.Node `yaml:"body"`
}

type assertNode struct {
	Cond    yaml.Node `yaml:"cond"`
	Message yaml.Node `yaml:"message"`
	Span    []int     `yaml:"span"`
}

type ctorCallNode struct {
	Args  []yaml.Node `yaml:"args"`
	Outer yaml.Node   `yaml:"outer"`
}
