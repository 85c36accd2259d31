package names

// reserved holds identifiers that cannot be used verbatim in generated code:
// C and Objective-C keywords, predefined types, macros and constants, and the
// selectors NSObject already answers.
var reserved = map[string]bool{}

var reservedWords = []string{
	// C keywords
	"auto", "break", "case", "char", "const", "continue", "default", "do", "double",
	"else", "enum", "extern", "float", "for", "goto", "if", "inline", "int", "long",
	"register", "restrict", "return", "short", "signed", "sizeof", "static", "struct",
	"switch", "typedef", "union", "unsigned", "void", "volatile", "while",
	"_Bool", "_Complex", "_Imaginary", "asm", "typeof",

	// Objective-C keywords and type qualifiers
	"id", "self", "super", "nil", "Nil", "YES", "NO", "BOOL", "SEL", "IMP", "Class",
	"Protocol", "in", "out", "inout", "bycopy", "byref", "oneway", "instancetype",
	"_cmd", "__strong", "__weak", "__unsafe_unretained", "__autoreleasing", "__block",

	// predefined types, macros and constants
	"NULL", "EOF", "errno", "assert", "bool", "true", "false", "main", "unichar",
	"int8_t", "int16_t", "int32_t", "int64_t", "uint8_t", "uint16_t", "uint32_t",
	"uint64_t", "size_t", "ptrdiff_t", "intptr_t", "uintptr_t", "NSInteger",
	"NSUInteger", "CGFloat", "NSZone", "NAN", "INFINITY", "DEBUG", "TRUE", "FALSE",
	"stdin", "stdout", "stderr", "FILE", "signal", "abs", "exit", "free", "malloc",

	// NSObject messages
	"alloc", "autorelease", "copy", "dealloc", "description", "finalize", "hash",
	"init", "initialize", "isEqual", "isKindOfClass", "isMemberOfClass", "isProxy",
	"load", "mutableCopy", "new", "release", "respondsToSelector", "retain",
	"retainCount", "superclass", "zone", "class", "debugDescription", "conformsToProtocol",
	"performSelector", "methodForSelector", "forwardInvocation",

	// runtime helpers referenced by generated code
	"nil_chk", "JreBoolToString", "JreEmulationMainArguments",
}

func init() {
	for _, w := range reservedWords {
		reserved[w] = true
	}
}

// IsReserved reports whether name collides with a platform identifier.
func IsReserved(name string) bool {
	return reserved[name]
}

// objectMethodRenames maps Object methods onto the NSObject selectors that
// implement them, keyed by name and parameter count.
var objectMethodRenames = map[string]map[int]string{
	"toString": {0: "description"},
	"hashCode": {0: "hash"},
	"equals":   {1: "isEqual:"},
}

// platformTypeNames gives the runtime class or protocol standing in for a
// source type.
var platformTypeNames = map[string]string{
	"java.lang.Object":    "NSObject",
	"java.lang.String":    "NSString",
	"java.lang.Class":     "IOSClass",
	"java.lang.Number":    "NSNumber",
	"java.lang.Cloneable": "NSCopying",
}

// PlatformTypeName returns the runtime name for a qualified source type that
// maps to a built-in platform type.
func PlatformTypeName(qualified string) (string, bool) {
	n, ok := platformTypeNames[qualified]
	return n, ok
}
