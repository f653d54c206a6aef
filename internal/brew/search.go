package brew

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
)

// noResultsMessage is what brew prints on stderr (with exit status 1) when a
// search matches nothing. That is an empty result, not a failure.
const noResultsMessage = "No formulae or casks found"

// SearchArgs returns the brew arguments used to search one category.
func SearchArgs(category Category, query string) []string {
	if category == CategoryCask {
		return []string{"search", "--cask", query}
	}
	return []string{"search", "--formula", query}
}

// Search runs brew search for both categories and returns fresh packages in
// the order brew printed them.
func Search(ctx context.Context, r Runner, query string) (formulae, casks []Package, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil, fmt.Errorf("search query cannot be empty")
	}

	formulae, err = searchCategory(ctx, r, CategoryFormula, query)
	if err != nil {
		return nil, nil, err
	}

	casks, err = searchCategory(ctx, r, CategoryCask, query)
	if err != nil {
		return nil, nil, err
	}

	return formulae, casks, nil
}

func searchCategory(ctx context.Context, r Runner, category Category, query string) ([]Package, error) {
	output, err := r.Output(ctx, SearchArgs(category, query)...)
	if err != nil {
		var procErr *ProcessError
		if errors.As(err, &procErr) && procErr.ExitCode == 1 &&
			(procErr.Stderr == "" || strings.Contains(procErr.Stderr, noResultsMessage)) {
			return []Package{}, nil
		}
		return nil, fmt.Errorf("brew search --%s failed: %w", category, err)
	}

	return parseSearchOutput(output, category), nil
}

// parseSearchOutput turns brew search output into packages.
// Example input (a TTY lays names out in columns; pipes get one per line):
//
//	==> Formulae
//	wget ✔
//	wget2
func parseSearchOutput(output []byte, category Category) []Package {
	packages := []Package{}

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "==>") {
			continue
		}

		for _, field := range strings.Fields(line) {
			if field == "✔" {
				continue
			}
			packages = append(packages, NewPackage(field, category))
		}
	}

	return packages
}
