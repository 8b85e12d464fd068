package db

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"schemata/internal/config"
	"schemata/internal/util"
)

// EnsureDatabase creates dbName on a MySQL-family server when missing, so
// mutant tables have a database to live in. SQLite files need no setup.
func EnsureDatabase(ctx context.Context, kind string, dsn string, dbName string) error {
	if dbName == "" || strings.EqualFold(kind, "sqlite") {
		return nil
	}
	admin, err := Open(kind, config.AdminDSN(dsn))
	if err != nil {
		return err
	}
	defer util.CloseWithErr(admin, "admin connection")
	stmt := "CREATE DATABASE IF NOT EXISTS `" + strings.ReplaceAll(dbName, "`", "``") + "`"
	if _, err := admin.ExecuteUpdate(ctx, stmt); err != nil {
		return errors.Wrapf(err, "ensure database %s", dbName)
	}
	util.Detailf("database %s ready on %s", dbName, kind)
	return nil
}
