package syntax

import "fmt"

// Kind tags a syntax tree node. The vocabulary is closed: every tag a parser
// adapter may produce is listed here, named after the Python grammar construct.
type Kind uint8

// Module and statements.
const (
	Invalid Kind = iota
	Module
	FunctionDef
	AsyncFunctionDef
	ClassDef
	Return
	Delete
	Assign
	AugAssign
	AnnAssign
	For
	AsyncFor
	While
	If
	With
	AsyncWith
	Match
	Raise
	Try
	Assert
	Import
	ImportFrom
	Global
	Nonlocal
	Expr
	Pass
	Break
	Continue
)

// Expressions.
const (
	BoolOp Kind = iota + Continue + 1
	NamedExpr
	BinOp
	UnaryOp
	Lambda
	IfExp
	Dict
	Set
	ListComp
	SetComp
	DictComp
	GeneratorExp
	Await
	Yield
	YieldFrom
	Compare
	Call
	FormattedValue
	JoinedStr
	Constant
	Attribute
	Subscript
	Starred
	Name
	List
	Tuple
	Slice
)

// Auxiliary nodes.
const (
	Arguments Kind = iota + Slice + 1
	Arg
	Keyword
	Alias
	Comprehension
	ExceptHandler
	WithItem
	MatchCase
)

// Operators.
const (
	And Kind = iota + MatchCase + 1
	Or
	Add
	Sub
	Mult
	MatMult
	Div
	Mod
	Pow
	LShift
	RShift
	BitOr
	BitXor
	BitAnd
	FloorDiv
	Invert
	Not
	UAdd
	USub
	Eq
	NotEq
	Lt
	LtE
	Gt
	GtE
	Is
	IsNot
	In
	NotIn

	kindCount
)

var kindNames = [kindCount]string{
	Invalid:          "Invalid",
	Module:           "Module",
	FunctionDef:      "FunctionDef",
	AsyncFunctionDef: "AsyncFunctionDef",
	ClassDef:         "ClassDef",
	Return:           "Return",
	Delete:           "Delete",
	Assign:           "Assign",
	AugAssign:        "AugAssign",
	AnnAssign:        "AnnAssign",
	For:              "For",
	AsyncFor:         "AsyncFor",
	While:            "While",
	If:               "If",
	With:             "With",
	AsyncWith:        "AsyncWith",
	Match:            "Match",
	Raise:            "Raise",
	Try:              "Try",
	Assert:           "Assert",
	Import:           "Import",
	ImportFrom:       "ImportFrom",
	Global:           "Global",
	Nonlocal:         "Nonlocal",
	Expr:             "Expr",
	Pass:             "Pass",
	Break:            "Break",
	Continue:         "Continue",

	BoolOp:         "BoolOp",
	NamedExpr:      "NamedExpr",
	BinOp:          "BinOp",
	UnaryOp:        "UnaryOp",
	Lambda:         "Lambda",
	IfExp:          "IfExp",
	Dict:           "Dict",
	Set:            "Set",
	ListComp:       "ListComp",
	SetComp:        "SetComp",
	DictComp:       "DictComp",
	GeneratorExp:   "GeneratorExp",
	Await:          "Await",
	Yield:          "Yield",
	YieldFrom:      "YieldFrom",
	Compare:        "Compare",
	Call:           "Call",
	FormattedValue: "FormattedValue",
	JoinedStr:      "JoinedStr",
	Constant:       "Constant",
	Attribute:      "Attribute",
	Subscript:      "Subscript",
	Starred:        "Starred",
	Name:           "Name",
	List:           "List",
	Tuple:          "Tuple",
	Slice:          "Slice",

	Arguments:     "arguments",
	Arg:           "arg",
	Keyword:       "keyword",
	Alias:         "alias",
	Comprehension: "comprehension",
	ExceptHandler: "ExceptHandler",
	WithItem:      "withitem",
	MatchCase:     "match_case",

	And:      "And",
	Or:       "Or",
	Add:      "Add",
	Sub:      "Sub",
	Mult:     "Mult",
	MatMult:  "MatMult",
	Div:      "Div",
	Mod:      "Mod",
	Pow:      "Pow",
	LShift:   "LShift",
	RShift:   "RShift",
	BitOr:    "BitOr",
	BitXor:   "BitXor",
	BitAnd:   "BitAnd",
	FloorDiv: "FloorDiv",
	Invert:   "Invert",
	Not:      "Not",
	UAdd:     "UAdd",
	USub:     "USub",
	Eq:       "Eq",
	NotEq:    "NotEq",
	Lt:       "Lt",
	LtE:      "LtE",
	Gt:       "Gt",
	GtE:      "GtE",
	Is:       "Is",
	IsNot:    "IsNot",
	In:       "In",
	NotIn:    "NotIn",
}

// String returns the tag used in feature keys, dumps and feedback messages.
func (k Kind) String() string {
	if k < kindCount && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsValid reports whether k belongs to the vocabulary.
func (k Kind) IsValid() bool {
	return k > Invalid && k < kindCount
}
