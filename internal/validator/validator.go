// Package validator parses statements with the TiDB parser and rewrites table references.
package validator

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/types/parser_driver" // Register TiDB parser driver.
	"github.com/pkg/errors"
)

// Validator wraps the TiDB parser. It is not safe for concurrent use.
type Validator struct {
	parser *parser.Parser
}

// New returns a Validator instance.
func New() *Validator {
	return &Validator{parser: parser.New()}
}

// Validate parses a SQL statement and returns any syntax error.
func (v *Validator) Validate(sql string) error {
	_, _, err := v.parser.Parse(sql, "", "")
	return err
}

// PrefixTables rewrites every table reference of a single statement so it
// targets prefix+name. Column names and values are left as parsed.
func (v *Validator) PrefixTables(sql string, prefix string) (string, error) {
	stmt, err := v.parser.ParseOneStmt(sql, "", "")
	if err != nil {
		return "", errors.Wrapf(err, "parse %q", sql)
	}
	stmt.Accept(&tablePrefixer{prefix: prefix})
	var b strings.Builder
	// String values escape their own backslashes on restore.
	flags := format.DefaultRestoreFlags | format.RestoreStringWithoutCharset
	if err := stmt.Restore(format.NewRestoreCtx(flags, &b)); err != nil {
		return "", errors.Wrapf(err, "restore %q", sql)
	}
	return b.String(), nil
}

// TargetTable returns the table an INSERT statement writes to.
func (v *Validator) TargetTable(sql string) (string, error) {
	stmt, err := v.parser.ParseOneStmt(sql, "", "")
	if err != nil {
		return "", errors.Wrapf(err, "parse %q", sql)
	}
	ins, ok := stmt.(*ast.InsertStmt)
	if !ok || ins.Table == nil {
		return "", errors.Errorf("not an insert: %q", sql)
	}
	c := &tableCollector{}
	ins.Table.Accept(c)
	if c.first == "" {
		return "", errors.Errorf("no target table: %q", sql)
	}
	return c.first, nil
}

type tablePrefixer struct {
	prefix string
}

// Enter renames table references.
func (p *tablePrefixer) Enter(in ast.Node) (ast.Node, bool) {
	if t, ok := in.(*ast.TableName); ok && t.Name.O != "" {
		t.Name = ast.NewCIStr(p.prefix + t.Name.O)
	}
	return in, false
}

// Leave completes the visitor step.
func (p *tablePrefixer) Leave(in ast.Node) (ast.Node, bool) {
	return in, true
}

type tableCollector struct {
	first string
}

// Enter records the first table name seen.
func (c *tableCollector) Enter(in ast.Node) (ast.Node, bool) {
	if t, ok := in.(*ast.TableName); ok && c.first == "" {
		c.first = t.Name.O
	}
	return in, false
}

// Leave completes the visitor step.
func (c *tableCollector) Leave(in ast.Node) (ast.Node, bool) {
	return in, true
}
