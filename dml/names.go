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

	"gopkg.in/yaml.v3"

	"github.com/bufbuild/dmlparse/grammar"
	"github.com/bufbuild/dmlparse/scanner"
)

// Node type names. These are part of the public contract of the parser:
// tools match on them by name, so renaming one is a breaking change.
const (
	TypeSourceFile = "source_file"
	TypeToplevel   = "toplevel"

	TypeDeviceDeclaration      = "device_declaration"
	TypeProvisionalDeclaration = "provisional_declaration"
	TypeBitorderDeclaration    = "bitorder_declaration"
	TypeTemplateDeclaration    = "template_declaration"
	TypeTypedefDeclaration     = "typedef_declaration"
	TypeExternDeclaration      = "extern_declaration"
	TypeConstantDeclaration    = "constant_declaration"
	TypeLoggroupDeclaration    = "loggroup_declaration"
	TypeHeaderDeclaration      = "header_declaration"
	TypeExportDeclaration      = "export_declaration"
	TypeToplevelIf             = "toplevel_if"

	TypeRegisterDeclaration  = "register_declaration"
	TypeFieldDeclaration     = "field_declaration"
	TypeBankDeclaration      = "bank_declaration"
	TypeGroupDeclaration     = "group_declaration"
	TypePortDeclaration      = "port_declaration"
	TypeConnectDeclaration   = "connect_declaration"
	TypeInterfaceDeclaration = "interface_declaration"
	TypeAttributeDeclaration = "attribute_declaration"
	TypeEventDeclaration     = "event_declaration"
	TypeImplementDeclaration = "implement_declaration"
	TypeSubdeviceDeclaration = "subdevice_declaration"

	TypeSessionDeclaration      = "session_declaration"
	TypeSavedDeclaration        = "saved_declaration"
	TypeHookDeclaration         = "hook_declaration"
	TypeSharedHookDeclaration   = "shared_hook_declaration"
	TypeParameterDeclaration    = "parameter_declaration"
	TypeMethodDeclaration       = "method_declaration"
	TypeSharedMethodDeclaration = "shared_method_declaration"
	TypeMethodQualifiers        = "method_qualifiers"
	TypeParameterList           = "parameter_list"
	TypeInlineParameter         = "inline_parameter"
	TypeMethodOutparams         = "method_outparams"
	TypeObjectIf                = "object_if"
	TypeInEach                  = "in_each"
	TypeIsStatement             = "is_statement"
	TypeIsTemplate              = "istemplate"

	TypeArraySpec      = "array_spec"
	TypeSizeSpec       = "sizespec"
	TypeOffsetSpec     = "offsetspec"
	TypeBitrangeSpec   = "bitrangespec"
	TypeBitrange       = "bitrange"
	TypeObjectDesc     = "object_desc"
	TypeComposedString = "composed_string_literal"
	TypeUTF8String     = "utf8_sconst"

	TypeCDecl          = "cdecl"
	TypeCTypeDecl      = "ctypedecl"
	TypeStructType     = "struct_type"
	TypeStructMember   = "struct_member"
	TypeLayoutType     = "layout_type"
	TypeBitfieldsType  = "bitfields_type"
	TypeBitfieldMember = "bitfield_member"
	TypeTypeofType     = "typeof_type"
	TypeSequenceType   = "sequence_type"
	TypeHookType       = "hook_type"
	TypePrimitiveType  = "primitive_type"

	TypeCompoundStatement   = "compound_statement"
	TypeLocalDeclaration    = "local_declaration"
	TypeExpressionStatement = "expression_statement"
	TypeEmptyStatement      = "empty_statement"
	TypeIfStatement         = "if_statement"
	TypeWhileStatement      = "while_statement"
	TypeDoStatement         = "do_statement"
	TypeForStatement        = "for_statement"
	TypeSwitchStatement     = "switch_statement"
	TypeCaseStatement       = "case_statement"
	TypeDeleteStatement     = "delete_statement"
	TypeTryStatement        = "try_statement"
	TypeAfterStatement      = "after_statement"
	TypeAssertStatement     = "assert_statement"
	TypeLogStatement        = "log_statement"
	TypeForeachStatement    = "foreach_statement"
	TypeSelectStatement     = "select_statement"
	TypeGotoStatement       = "goto_statement"
	TypeBreakStatement      = "break_statement"
	TypeContinueStatement   = "continue_statement"
	TypeThrowStatement      = "throw_statement"
	TypeReturnStatement     = "return_statement"
	TypeErrorStatement      = "error_statement"
	TypeWarningStatement    = "warning_statement"

	TypeAssignmentExpression         = "assignment_expression"
	TypeCompoundAssignmentExpression = "compound_assignment_expression"
	TypeTupleExpression              = "tuple_expression"
	TypeTupleInitializer             = "tuple_initializer"
	TypeInitializerList              = "initializer_list"
	TypeDesignatedInitializer        = "designated_initializer"

	TypeConditionalExpression   = "conditional_expression"
	TypeBinaryExpression        = "binary_expression"
	TypeUnaryExpression         = "unary_expression"
	TypeUpdateExpression        = "update_expression"
	TypeCastExpression          = "cast_expression"
	TypeSizeofExpression        = "sizeof_expression"
	TypeNewExpression           = "new_expression"
	TypeCallExpression          = "call_expression"
	TypeIndexExpression         = "index_expression"
	TypeMemberExpression        = "member_expression"
	TypeParenthesizedExpression = "parenthesized_expression"
	TypeListExpression          = "list_expression"
	TypeEachExpression          = "each_expression"
	TypeStringifyExpression     = "stringify_expression"

	TypeIdentifier     = scanner.Identifier
	TypeIntegerLiteral = scanner.IntegerLit
	TypeHexLiteral     = scanner.HexLit
	TypeBinaryLiteral  = scanner.BinaryLit
	TypeFloatLiteral   = scanner.FloatLit
	TypeCharLiteral    = scanner.CharLit
	TypeStringLiteral  = scanner.StringLit
	TypeCCode          = scanner.CCodeLiteral
	TypeError          = "ERROR"

	// The keyword leaf that starts an import statement.
	TypeImport = "import"
)

// NodeTypes returns the names of every named node type that can appear in
// a DML syntax tree, sorted.
func NodeTypes() []string {
	rules, tokens := nodeTypes()
	return slices.Sorted(slices.Values(append(rules, tokens...)))
}

// NodeTypesYAML renders the node types as a YAML document, split into rule
// nodes and token (leaf) nodes.
func NodeTypesYAML() ([]byte, error) {
	rules, tokens := nodeTypes()
	return yaml.Marshal(&NodeTypesDoc{
		Grammar: Table().Name(),
		Rules:   rules,
		Tokens:  tokens,
	})
}

// NodeTypesDoc is the document produced by [NodeTypesYAML].
type NodeTypesDoc struct {
	Grammar string   `yaml:"grammar"`
	Rules   []string `yaml:"rules"`
	Tokens  []string `yaml:"tokens"`
}

func nodeTypes() (rules, tokens []string) {
	table := Table()
	for i := range table.Symbols() {
		info := table.Symbol(grammar.Symbol(i))
		if !info.Named || info.Hidden {
			continue
		}
		if info.Terminal {
			tokens = append(tokens, info.Name)
		} else {
			rules = append(rules, info.Name)
		}
	}
	slices.Sort(rules)
	slices.Sort(tokens)
	return rules, tokens
}
