package main

import (
	"context"
	"fmt"
)

// migrate applies pending schema migrations.
func (cli *commandLine) migrate(ctx context.Context) error {
	if err := cli.db.Migrate(ctx); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}
