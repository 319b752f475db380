package parser

import "strings"

// keywords is the reserved-word set, matched case-insensitively on the
// letter run before suffix consumption, per §4.1: "matching keywords never
// carry suffixes."
var keywords = map[string]bool{
	"PRINT": true, "INPUT": true, "LINE": true, "IF": true, "THEN": true,
	"ELSE": true, "ELSEIF": true, "END": true, "FOR": true, "TO": true,
	"STEP": true, "NEXT": true, "WHILE": true, "WEND": true, "DO": true,
	"LOOP": true, "UNTIL": true, "GOTO": true, "GOSUB": true, "RETURN": true,
	"ON": true, "DIM": true, "SUB": true, "FUNCTION": true, "DATA": true,
	"READ": true, "RESTORE": true, "SELECT": true, "CASE": true, "IS": true,
	"OPEN": true, "CLOSE": true, "AS": true, "OUTPUT": true, "APPEND": true,
	"CLS": true, "STOP": true, "NOT": true, "AND": true, "OR": true,
	"XOR": true, "MOD": true, "LET": true,
	"DEFINT": true, "DEFLNG": true, "DEFSNG": true, "DEFDBL": true, "DEFSTR": true,
}

// builtins maps a builtin function's name (including its fixed suffix,
// where it has one) to its BuiltinID.
var builtins = map[string]BuiltinID{
	"LEN": BuiltinLen, "MID$": BuiltinMid, "LEFT$": BuiltinLeft,
	"RIGHT$": BuiltinRight, "INSTR": BuiltinInstr, "CHR$": BuiltinChr,
	"STR$": BuiltinStr, "VAL": BuiltinVal, "ASC": BuiltinAsc,
	"INT": BuiltinInt, "FIX": BuiltinFix, "CINT": BuiltinCInt,
	"CLNG": BuiltinCLng, "CSNG": BuiltinCSng, "CDBL": BuiltinCDbl,
	"ABS": BuiltinAbs, "SGN": BuiltinSgn, "SQR": BuiltinSqr,
	"SIN": BuiltinSin, "COS": BuiltinCos, "TAN": BuiltinTan,
	"ATN": BuiltinAtn, "EXP": BuiltinExp, "LOG": BuiltinLog,
	"RND": BuiltinRnd, "TIMER": BuiltinTimer,
}

// builtinReturnType reports the static return type of a builtin call,
// used by the type checker to annotate BuiltinCallExpr nodes.
func builtinReturnType(id BuiltinID) Type {
	switch id {
	case BuiltinMid, BuiltinLeft, BuiltinRight, BuiltinChr, BuiltinStr:
		return TypeString
	case BuiltinLen, BuiltinInstr, BuiltinAsc:
		return TypeLong
	case BuiltinCInt:
		return TypeInteger
	case BuiltinCLng:
		return TypeLong
	case BuiltinCSng:
		return TypeSingle
	case BuiltinCDbl, BuiltinVal, BuiltinInt, BuiltinFix, BuiltinAbs,
		BuiltinSgn, BuiltinSqr, BuiltinSin, BuiltinCos, BuiltinTan,
		BuiltinAtn, BuiltinExp, BuiltinLog, BuiltinRnd, BuiltinTimer:
		return TypeDouble
	default:
		return TypeNone
	}
}

// identLetters returns the letter run of an identifier token's literal,
// with any trailing type-suffix character stripped.
func identLetters(lit string) string {
	base, _ := SplitSuffix(lit)
	return base
}

// kwMatch reports whether tok is the reserved word kw: an identifier token
// whose full literal (no suffix attached) matches kw case-insensitively.
func kwMatch(tok Token, kw string) bool {
	if tok.Type != TokenIdent {
		return false
	}
	base, suffix := SplitSuffix(tok.Literal)
	return suffix == "" && strings.EqualFold(base, kw)
}

// isKeyword reports whether an identifier token is a reserved word at all
// (used to decide whether a bare "Ident Colon" at line-start is a label).
func isKeyword(tok Token) bool {
	if tok.Type != TokenIdent {
		return false
	}
	base, suffix := SplitSuffix(tok.Literal)
	return suffix == "" && keywords[strings.ToUpper(base)]
}
