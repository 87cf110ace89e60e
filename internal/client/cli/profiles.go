package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/ontop/internal/common"
)

func profileKind(args []string) (string, error) {
	if len(args) == 1 && (args[0] == "fitness" || args[0] == "finances") {
		return args[0], nil
	}
	return "", fmt.Errorf("%w: expected 'fitness' or 'finances'", common.ErrValidation)
}

func (a *App) ShowProfile(ctx context.Context, args []string) error {
	kind, err := profileKind(args)
	if err != nil {
		return err
	}

	var doc json.RawMessage
	if kind == "fitness" {
		doc, err = a.data.Fitness(ctx)
	} else {
		doc, err = a.data.Finances(ctx)
	}
	if err != nil {
		return err
	}
	if len(doc) == 0 {
		printlnFn("No " + kind + " profile yet.")
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return err
	}
	printlnFn(buf.String())
	return nil
}

// EditProfile replaces the whole profile with a JSON document typed in by
// the user.
func (a *App) EditProfile(ctx context.Context, args []string) error {
	kind, err := profileKind(args)
	if err != nil {
		return err
	}

	text, err := getMultiline(a.reader, "Enter the "+kind+" profile as JSON", a.out)
	if err != nil {
		return err
	}
	doc := json.RawMessage(text)

	if kind == "fitness" {
		out, err := a.data.SaveFitness(ctx, doc)
		if err != nil {
			return err
		}
		printlnFn(fmt.Sprintf("Saved (%s).", out))
		return nil
	}

	out, err := a.data.SaveFinances(ctx, doc)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Saved (%s).", out))
	return nil
}
