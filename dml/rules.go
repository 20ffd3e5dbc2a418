// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dml

import (
	"slices"

	g "github.com/bufbuild/dmlparse/grammar"
	"github.com/bufbuild/dmlparse/scanner"
)

// Operator precedence levels. Higher binds tighter.
const (
	precConditional    = 30
	precLogicalOr      = 40
	precLogicalAnd     = 50
	precBitOr          = 60
	precBitXor         = 70
	precBitAnd         = 80
	precEquality       = 90
	precRelational     = 100
	precShift          = 110
	precAdditive       = 120
	precMultiplicative = 130
	precCast           = 140
	precUnary          = 150
	precPostfix        = 160
)

// Keywords that may also be used as identifiers.
var contextualKeywords = []string{
	"attribute", "auto", "bank", "bitorder", "connect", "constant", "device",
	"event", "field", "footer", "group", "header", "implement", "import",
	"independent", "interface", "loggroup", "memoized", "method", "param",
	"port", "provisional", "size", "startup", "subdevice", "then", "throws",
	"_header",
}

// C type names that are keywords.
var primitiveTypes = []string{
	"char", "double", "float", "int", "long", "short", "signed", "unsigned",
	"void",
}

// Rules returns the DML 1.4 grammar. Each call returns a fresh copy.
func Rules() *g.Grammar {
	var (
		lit      = g.Lit
		ref      = g.Ref
		seq      = g.Seq
		choice   = g.Choice
		optional = g.Optional
		repeat   = g.Repeat
		sep1     = g.Sep1
		sep      = g.Sep
		expr     = ref("_expression")
	)
	comma := lit(",")
	semi := lit(";")

	block := func(stmt string) g.Expr {
		return seq(lit("{"), repeat(ref(stmt)), lit("}"))
	}
	ifKeyword := choice(lit("#if"), lit("if"))
	elseKeyword := choice(lit("#else"), lit("else"))

	object := func(keyword string, specs ...g.Expr) g.Expr {
		items := []g.Expr{lit(keyword), ref("_objident"), repeat(ref(TypeArraySpec))}
		items = append(items, specs...)
		items = append(items, optional(ref(TypeIsTemplate)), ref("_object_spec"))
		return seq(items...)
	}
	binary := func(level int, ops ...string) []g.Expr {
		var out []g.Expr
		for _, op := range ops {
			out = append(out, g.PrecLeft(level, seq(expr, lit(op), expr)))
		}
		return out
	}
	literals := func(words []string, alias string) []g.Expr {
		out := make([]g.Expr, len(words))
		for i, w := range words {
			out[i] = g.Alias(lit(w), alias)
		}
		return out
	}

	rules := []g.Rule{
		{Name: TypeSourceFile, Body: repeat(ref(TypeToplevel))},

		// Top level.
		{Name: TypeToplevel, Body: choice(
			seq(lit("import"), ref(TypeUTF8String), semi),
			ref(TypeDeviceDeclaration),
			ref(TypeProvisionalDeclaration),
			ref(TypeBitorderDeclaration),
			ref(TypeTemplateDeclaration),
			ref(TypeTypedefDeclaration),
			ref(TypeExternDeclaration),
			ref(TypeConstantDeclaration),
			ref(TypeLoggroupDeclaration),
			ref(TypeHeaderDeclaration),
			ref(TypeExportDeclaration),
			ref(TypeToplevelIf),
			ref("_common_statement"),
		)},
		{Name: TypeDeviceDeclaration, Body: seq(
			lit("device"), ref("_objident"),
			choice(semi, seq(optional(ref(TypeIsTemplate)), block("_object_statement"))),
		)},
		{Name: TypeProvisionalDeclaration, Body: seq(lit("provisional"), sep1(ref("_ident"), comma), semi)},
		{Name: TypeBitorderDeclaration, Body: seq(lit("bitorder"), ref("_ident"), semi)},
		{Name: TypeTemplateDeclaration, Body: seq(
			lit("template"), ref("_objident"), optional(ref(TypeIsTemplate)), block("_template_statement"),
		)},
		{Name: TypeTypedefDeclaration, Body: seq(optional(lit("extern")), lit("typedef"), ref(TypeCDecl), semi)},
		{Name: TypeExternDeclaration, Body: seq(lit("extern"), ref(TypeCDecl), semi)},
		{Name: TypeConstantDeclaration, Body: seq(lit("constant"), ref("_ident"), lit("="), expr, semi)},
		{Name: TypeLoggroupDeclaration, Body: seq(lit("loggroup"), ref("_ident"), semi)},
		{Name: TypeHeaderDeclaration, Body: seq(
			choice(lit("header"), lit("footer"), lit("_header")), ref(scanner.CCodeLiteral),
		)},
		{Name: TypeExportDeclaration, Body: seq(lit("export"), expr, lit("as"), expr, semi)},
		{Name: TypeToplevelIf, Body: seq(
			ifKeyword, lit("("), expr, lit(")"), block(TypeToplevel),
			optional(seq(elseKeyword, choice(block(TypeToplevel), ref(TypeToplevelIf)))),
		)},

		// Object bodies.
		{Name: "_object_spec", Body: seq(
			optional(ref(TypeObjectDesc)),
			choice(semi, block("_object_statement")),
		)},
		{Name: "_object_statement", Body: choice(ref("_common_statement"), ref(TypeObjectIf))},
		{Name: "_template_statement", Body: choice(ref("_object_statement"), ref(TypeSharedHookDeclaration))},
		{Name: "_common_statement", Body: choice(
			ref(TypeRegisterDeclaration),
			ref(TypeFieldDeclaration),
			ref(TypeBankDeclaration),
			ref(TypeGroupDeclaration),
			ref(TypePortDeclaration),
			ref(TypeConnectDeclaration),
			ref(TypeInterfaceDeclaration),
			ref(TypeAttributeDeclaration),
			ref(TypeEventDeclaration),
			ref(TypeImplementDeclaration),
			ref(TypeSubdeviceDeclaration),
			ref(TypeSessionDeclaration),
			ref(TypeSavedDeclaration),
			ref(TypeHookDeclaration),
			ref(TypeParameterDeclaration),
			ref(TypeMethodDeclaration),
			ref(TypeSharedMethodDeclaration),
			ref(TypeIsStatement),
			ref(TypeErrorStatement),
			ref(TypeInEach),
		)},
		{Name: TypeObjectIf, Body: seq(
			ifKeyword, lit("("), expr, lit(")"), block("_object_statement"),
			optional(seq(elseKeyword, choice(block("_object_statement"), ref(TypeObjectIf)))),
		)},
		{Name: TypeInEach, Body: seq(lit("in"), lit("each"), ref("_template_list"), block("_object_statement"))},
		{Name: TypeIsStatement, Body: seq(ref(TypeIsTemplate), semi)},
		{Name: TypeIsTemplate, Body: seq(lit("is"), ref("_template_list"))},
		{Name: "_template_list", Body: choice(
			ref("_objident"),
			seq(lit("("), sep1(ref("_objident"), comma), lit(")")),
		)},

		{Name: TypeRegisterDeclaration, Body: object("register",
			optional(ref(TypeSizeSpec)), optional(ref(TypeOffsetSpec)))},
		{Name: TypeFieldDeclaration, Body: object("field", optional(ref(TypeBitrangeSpec)))},
		{Name: TypeBankDeclaration, Body: object("bank")},
		{Name: TypeGroupDeclaration, Body: object("group")},
		{Name: TypePortDeclaration, Body: object("port")},
		{Name: TypeConnectDeclaration, Body: object("connect")},
		{Name: TypeInterfaceDeclaration, Body: object("interface")},
		{Name: TypeAttributeDeclaration, Body: object("attribute")},
		{Name: TypeEventDeclaration, Body: object("event")},
		{Name: TypeImplementDeclaration, Body: object("implement")},
		{Name: TypeSubdeviceDeclaration, Body: object("subdevice")},

		{Name: TypeArraySpec, Body: seq(
			lit("["), ref("_ident"), lit("<"), choice(expr, lit("...")), lit("]"),
		)},
		{Name: TypeSizeSpec, Body: seq(lit("size"), expr)},
		{Name: TypeOffsetSpec, Body: seq(lit("@"), expr)},
		{Name: TypeBitrangeSpec, Body: seq(lit("@"), ref(TypeBitrange))},
		{Name: TypeBitrange, Body: seq(lit("["), expr, optional(seq(lit(":"), expr)), lit("]"))},
		{Name: TypeObjectDesc, Body: sep1(ref(TypeUTF8String), lit("+"))},

		{Name: TypeSessionDeclaration, Body: seq(
			lit("session"), ref("_declared"), optional(seq(lit("="), ref("_initializer"))), semi,
		)},
		{Name: TypeSavedDeclaration, Body: seq(
			lit("saved"), ref("_declared"), optional(seq(lit("="), ref("_initializer"))), semi,
		)},
		{Name: "_declared", Body: choice(
			ref(TypeCDecl),
			seq(lit("("), sep1(ref(TypeCDecl), comma), lit(")")),
		)},
		{Name: TypeHookDeclaration, Body: seq(
			lit("hook"), lit("("), sep(ref(TypeCDecl), comma), lit(")"), ref("_ident"),
			repeat(seq(lit("["), expr, lit("]"))), semi,
		)},
		{Name: TypeSharedHookDeclaration, Body: seq(lit("shared"), ref(TypeHookDeclaration))},

		{Name: TypeParameterDeclaration, Body: seq(
			lit("param"), ref("_objident"),
			choice(
				ref("_param_value"),
				seq(lit("auto"), semi),
				seq(lit(":"), ref(TypeCTypeDecl), ref("_param_value")),
			),
		)},
		{Name: "_param_value", Body: choice(
			semi,
			seq(lit("="), expr, semi),
			seq(lit("default"), expr, semi),
		)},

		// Methods.
		{Name: TypeMethodDeclaration, Body: seq(
			optional(choice(ref(TypeMethodQualifiers), lit("inline"))),
			lit("method"), ref("_objident"), ref("_method_signature"),
			optional(lit("default")), ref(TypeCompoundStatement),
		)},
		{Name: TypeSharedMethodDeclaration, Body: seq(
			lit("shared"), optional(ref(TypeMethodQualifiers)),
			lit("method"), ref("_ident"), ref("_method_signature"),
			choice(semi, seq(optional(lit("default")), ref(TypeCompoundStatement))),
		)},
		{Name: "_method_signature", Body: seq(
			ref(TypeParameterList), optional(ref(TypeMethodOutparams)), optional(lit("throws")),
		)},
		{Name: TypeMethodQualifiers, Body: choice(
			lit("independent"),
			seq(lit("independent"), lit("startup")),
			seq(lit("independent"), lit("startup"), lit("memoized")),
		)},
		{Name: TypeParameterList, Body: seq(
			lit("("), sep(choice(ref(TypeCDecl), ref(TypeInlineParameter)), comma), lit(")"),
		)},
		{Name: TypeInlineParameter, Body: seq(lit("inline"), ref("_ident"))},
		{Name: TypeMethodOutparams, Body: seq(lit("->"), lit("("), sep1(ref(TypeCDecl), comma), lit(")"))},

		// C declarations.
		{Name: TypeCDecl, Body: seq(optional(lit("const")), ref("_basetype"), optional(ref("_declarator")))},
		{Name: "_declarator", Body: choice(
			ref("_direct_declarator"),
			seq(lit("const"), ref("_declarator")),
			seq(lit("*"), ref("_declarator")),
			seq(lit("vect"), ref("_declarator")),
		)},
		{Name: "_direct_declarator", Body: choice(
			ref("_ident"),
			seq(ref("_direct_declarator"), lit("["), expr, lit("]")),
			seq(ref("_direct_declarator"), lit("("), optional(ref("_cdecl_params")), lit(")")),
			seq(lit("("), ref("_declarator"), lit(")")),
		)},
		{Name: "_cdecl_params", Body: choice(
			seq(sep1(ref(TypeCDecl), comma), optional(seq(comma, lit("...")))),
			lit("..."),
		)},
		{Name: "_basetype", Body: choice(
			ref("_typeident"),
			ref(TypeStructType),
			ref(TypeLayoutType),
			ref(TypeBitfieldsType),
			ref(TypeTypeofType),
			ref(TypeSequenceType),
			ref(TypeHookType),
		)},
		{Name: "_typeident", Body: choice(append([]g.Expr{ref("_ident")}, literals(primitiveTypes, TypePrimitiveType)...)...)},
		{Name: TypeStructType, Body: seq(lit("struct"), lit("{"), repeat(ref(TypeStructMember)), lit("}"))},
		{Name: TypeStructMember, Body: seq(ref(TypeCDecl), semi)},
		{Name: TypeLayoutType, Body: seq(
			lit("layout"), ref(TypeUTF8String), lit("{"), repeat(ref(TypeStructMember)), lit("}"),
		)},
		{Name: TypeBitfieldsType, Body: seq(
			lit("bitfields"), ref(scanner.IntegerLit), lit("{"), repeat(ref(TypeBitfieldMember)), lit("}"),
		)},
		{Name: TypeBitfieldMember, Body: seq(
			ref(TypeCDecl), lit("@"), lit("["), expr, optional(seq(lit(":"), expr)), lit("]"), semi,
		)},
		{Name: TypeTypeofType, Body: seq(lit("typeof"), expr)},
		{Name: TypeSequenceType, Body: seq(lit("sequence"), lit("("), ref("_typeident"), lit(")"))},
		{Name: TypeHookType, Body: seq(lit("hook"), lit("("), sep(ref(TypeCDecl), comma), lit(")"))},
		{Name: TypeCTypeDecl, Body: g.PrecRight(0, seq(
			optional(lit("const")), ref("_basetype"), optional(ref("_ctypedecl_ptr")),
		))},
		{Name: "_ctypedecl_ptr", Body: g.PrecRight(0, choice(
			seq(g.Repeat1(choice(lit("*"), seq(lit("*"), lit("const")))), optional(ref("_ctypedecl_simple"))),
			ref("_ctypedecl_simple"),
		))},
		{Name: "_ctypedecl_simple", Body: seq(lit("("), optional(ref("_ctypedecl_ptr")), lit(")"))},

		// Statements.
		{Name: "_statement", Body: choice(
			ref(TypeCompoundStatement),
			ref(TypeLocalDeclaration),
			ref(TypeExpressionStatement),
			ref(TypeEmptyStatement),
			ref(TypeIfStatement),
			ref(TypeWhileStatement),
			ref(TypeDoStatement),
			ref(TypeForStatement),
			ref(TypeSwitchStatement),
			ref(TypeCaseStatement),
			ref(TypeDeleteStatement),
			ref(TypeTryStatement),
			ref(TypeAfterStatement),
			ref(TypeAssertStatement),
			ref(TypeLogStatement),
			ref(TypeForeachStatement),
			ref(TypeSelectStatement),
			ref(TypeGotoStatement),
			ref(TypeBreakStatement),
			ref(TypeContinueStatement),
			ref(TypeThrowStatement),
			ref(TypeReturnStatement),
			ref(TypeErrorStatement),
			ref(TypeWarningStatement),
		)},
		{Name: TypeCompoundStatement, Body: block("_statement")},
		{Name: TypeLocalDeclaration, Body: seq(ref("_local"), semi)},
		{Name: "_local", Body: seq(
			choice(lit("local"), lit("session"), lit("saved")),
			ref("_declared"),
			optional(seq(lit("="), ref("_initializer"))),
		)},
		{Name: TypeExpressionStatement, Body: seq(ref("_assignable"), semi)},
		{Name: "_assignable", Body: choice(
			expr,
			ref(TypeAssignmentExpression),
			ref(TypeCompoundAssignmentExpression),
		)},
		{Name: TypeEmptyStatement, Body: semi},
		{Name: TypeIfStatement, Body: g.PrecRight(0, seq(
			ifKeyword, lit("("), expr, lit(")"), ref("_statement"),
			optional(seq(elseKeyword, ref("_statement"))),
		))},
		{Name: TypeWhileStatement, Body: seq(lit("while"), lit("("), expr, lit(")"), ref("_statement"))},
		{Name: TypeDoStatement, Body: seq(
			lit("do"), ref("_statement"), lit("while"), lit("("), expr, lit(")"), semi,
		)},
		{Name: TypeForStatement, Body: seq(
			lit("for"), lit("("),
			optional(choice(ref("_local"), ref("_for_update"))), semi,
			optional(expr), semi,
			optional(ref("_for_update")),
			lit(")"), ref("_statement"),
		)},
		{Name: "_for_update", Body: sep1(ref("_assignable"), comma)},
		{Name: TypeSwitchStatement, Body: seq(
			lit("switch"), lit("("), expr, lit(")"), block("_statement"),
		)},
		{Name: TypeCaseStatement, Body: choice(
			seq(lit("case"), expr, lit(":")),
			seq(lit("default"), lit(":")),
		)},
		{Name: TypeDeleteStatement, Body: seq(lit("delete"), expr, semi)},
		{Name: TypeTryStatement, Body: seq(lit("try"), ref("_statement"), lit("catch"), ref("_statement"))},
		{Name: TypeAfterStatement, Body: choice(
			seq(lit("after"), expr, ref(scanner.Identifier), lit(":"), expr, semi),
			g.Prec(1, seq(lit("after"), expr, lit("->"), lit("("), sep(ref("_ident"), comma), lit(")"), lit(":"), expr, semi)),
			g.Prec(1, seq(lit("after"), expr, lit("->"), ref("_ident"), lit(":"), expr, semi)),
			seq(lit("after"), expr, lit(":"), expr, semi),
			seq(lit("after"), lit(":"), expr, semi),
		)},
		{Name: TypeAssertStatement, Body: seq(lit("assert"), expr, semi)},
		{Name: TypeLogStatement, Body: seq(
			lit("log"), choice(ref(scanner.Identifier), lit("error")),
			optional(seq(comma, ref("_log_level"), optional(seq(comma, expr)))),
			lit(":"), ref("_bracketed_string"),
			repeat(seq(comma, expr)),
			semi,
		)},
		{Name: "_log_level", Body: choice(expr, seq(expr, lit("then"), expr))},
		{Name: TypeForeachStatement, Body: seq(
			choice(lit("foreach"), lit("#foreach")), ref("_ident"), lit("in"),
			lit("("), expr, lit(")"), ref("_statement"),
		)},
		{Name: TypeSelectStatement, Body: seq(
			lit("#select"), ref("_ident"), lit("in"), lit("("), expr, lit(")"),
			lit("where"), lit("("), expr, lit(")"),
			ref("_statement"), lit("#else"), ref("_statement"),
		)},
		{Name: TypeGotoStatement, Body: seq(lit("goto"), ref("_ident"), semi)},
		{Name: TypeBreakStatement, Body: seq(lit("break"), semi)},
		{Name: TypeContinueStatement, Body: seq(lit("continue"), semi)},
		{Name: TypeThrowStatement, Body: seq(lit("throw"), semi)},
		{Name: TypeReturnStatement, Body: seq(lit("return"), optional(ref("_initializer")), semi)},
		{Name: TypeErrorStatement, Body: seq(lit("error"), optional(ref("_bracketed_string")), semi)},
		{Name: TypeWarningStatement, Body: seq(lit("_warning"), ref("_bracketed_string"), semi)},
		{Name: "_bracketed_string", Body: choice(
			ref(TypeComposedString),
			seq(lit("("), ref(TypeComposedString), lit(")")),
		)},
		{Name: TypeComposedString, Body: sep1(ref(TypeUTF8String), lit("+"))},
		{Name: TypeUTF8String, Body: ref(scanner.StringLit)},

		// Assignment and initializers.
		// A tuple can only be assigned to at the head of a chain; past the
		// first "=", a parenthesized list is a tuple initializer.
		{Name: TypeAssignmentExpression, Body: choice(
			ref("_assign_chain"),
			seq(ref(TypeTupleExpression), lit("="), ref("_initializer")),
		)},
		{Name: "_assign_chain", Body: choice(
			seq(expr, lit("="), ref("_initializer")),
			seq(expr, lit("="), g.Alias(ref("_assign_chain"), TypeAssignmentExpression)),
		)},
		{Name: TypeCompoundAssignmentExpression, Body: seq(expr, choice(
			lit("+="), lit("-="), lit("*="), lit("/="), lit("%="),
			lit("|="), lit("&="), lit("^="), lit("<<="), lit(">>="),
		), expr)},
		{Name: TypeTupleExpression, Body: seq(lit("("), expr, comma, sep1(expr, comma), lit(")"))},
		{Name: "_initializer", Body: choice(ref("_single_initializer"), ref(TypeTupleInitializer))},
		{Name: TypeTupleInitializer, Body: seq(
			lit("("), ref("_single_initializer"), comma, sep1(ref("_single_initializer"), comma), lit(")"),
		)},
		{Name: "_single_initializer", Body: choice(expr, ref(TypeInitializerList))},
		{Name: TypeInitializerList, Body: seq(lit("{"), choice(
			seq(sep1(ref("_single_initializer"), comma), optional(comma)),
			seq(sep1(ref(TypeDesignatedInitializer), comma), optional(choice(comma, seq(comma, lit("..."))))),
		), lit("}"))},
		{Name: TypeDesignatedInitializer, Body: seq(lit("."), ref("_ident"), lit("="), ref("_single_initializer"))},

		// Expressions.
		{Name: "_expression", Body: choice(
			ref(TypeConditionalExpression),
			ref(TypeBinaryExpression),
			ref(TypeUnaryExpression),
			ref(TypeUpdateExpression),
			ref(TypeCastExpression),
			ref(TypeSizeofExpression),
			ref(TypeNewExpression),
			ref(TypeCallExpression),
			ref(TypeIndexExpression),
			ref(TypeMemberExpression),
			ref(TypeParenthesizedExpression),
			ref(TypeListExpression),
			ref(TypeEachExpression),
			ref(TypeStringifyExpression),
			ref(scanner.IntegerLit),
			ref(scanner.HexLit),
			ref(scanner.BinaryLit),
			ref(scanner.FloatLit),
			ref(scanner.CharLit),
			ref(scanner.StringLit),
			ref("_objident"),
			lit("undefined"),
			lit("default"),
			lit("this"),
		)},
		{Name: TypeConditionalExpression, Body: choice(
			g.PrecRight(precConditional, seq(expr, lit("?"), expr, lit(":"), expr)),
			g.PrecRight(precConditional, seq(expr, lit("#?"), expr, lit("#:"), expr)),
		)},
		{Name: TypeBinaryExpression, Body: choice(slices.Concat(
			binary(precLogicalOr, "||"),
			binary(precLogicalAnd, "&&"),
			binary(precBitOr, "|"),
			binary(precBitXor, "^"),
			binary(precBitAnd, "&"),
			binary(precEquality, "==", "!="),
			binary(precRelational, "<", ">", "<=", ">="),
			binary(precShift, "<<", ">>"),
			binary(precAdditive, "+", "-"),
			binary(precMultiplicative, "*", "/", "%"),
		)...)},
		{Name: TypeUnaryExpression, Body: g.PrecRight(precUnary, seq(choice(
			lit("-"), lit("+"), lit("!"), lit("~"), lit("&"), lit("*"),
			lit("++"), lit("--"), lit("defined"),
		), expr))},
		{Name: TypeUpdateExpression, Body: g.PrecLeft(precPostfix, seq(expr, choice(lit("++"), lit("--"))))},
		{Name: TypeCastExpression, Body: g.PrecRight(precCast, seq(
			lit("cast"), lit("("), expr, comma, ref(TypeCTypeDecl), lit(")"),
		))},
		{Name: TypeSizeofExpression, Body: choice(
			g.PrecRight(precUnary, seq(lit("sizeof"), expr)),
			g.PrecRight(precUnary, seq(lit("sizeoftype"), ref(TypeCTypeDecl))),
		)},
		{Name: TypeNewExpression, Body: g.PrecRight(precUnary, seq(
			lit("new"), ref(TypeCTypeDecl), optional(seq(lit("["), expr, lit("]"))),
		))},
		{Name: TypeCallExpression, Body: g.PrecLeft(precPostfix, seq(
			expr, lit("("),
			optional(seq(sep1(ref("_single_initializer"), comma), optional(comma))),
			lit(")"),
		))},
		{Name: TypeIndexExpression, Body: g.PrecLeft(precPostfix, seq(
			expr, lit("["), expr,
			optional(choice(
				seq(comma, ref(scanner.Identifier)),
				seq(lit(":"), expr, optional(seq(comma, ref(scanner.Identifier)))),
			)),
			lit("]"),
		))},
		{Name: TypeMemberExpression, Body: g.PrecLeft(precPostfix, seq(
			expr, choice(lit("."), lit("->")), ref("_objident"),
		))},
		{Name: TypeParenthesizedExpression, Body: seq(lit("("), expr, lit(")"))},
		{Name: TypeListExpression, Body: seq(lit("["), sep(expr, comma), lit("]"))},
		{Name: TypeEachExpression, Body: seq(
			lit("each"), ref("_objident"), lit("in"), lit("("), expr, lit(")"),
		)},
		{Name: TypeStringifyExpression, Body: seq(lit("stringify"), lit("("), expr, lit(")"))},

		// Identifiers.
		{Name: "_objident", Body: choice(ref("_ident"), g.Alias(lit("register"), scanner.Identifier))},
		{Name: "_ident", Body: choice(append(
			[]g.Expr{ref(scanner.Identifier)},
			literals(contextualKeywords, scanner.Identifier)...,
		)...)},
	}

	return &g.Grammar{
		Name: "dml",
		Tokens: []string{
			scanner.Identifier,
			scanner.IntegerLit,
			scanner.HexLit,
			scanner.BinaryLit,
			scanner.FloatLit,
			scanner.CharLit,
			scanner.StringLit,
			scanner.CCodeLiteral,
		},
		Rules: rules,
		Sync: []string{
			";", "}",
			"device", "template", "import", "typedef", "extern", "constant",
			"loggroup", "header", "footer", "register", "field", "bank",
			"group", "port", "connect", "interface", "attribute", "event",
			"implement", "subdevice", "session", "saved", "hook", "param",
			"method",
		},
	}
}
