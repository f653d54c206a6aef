package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/blackwell-systems/brewpick/internal/brew"
)

var (
	// ErrNotFound means the token does not belong to any package in the
	// current results.
	ErrNotFound = errors.New("no package matches the selection token")
	// ErrAmbiguous means a token prefix matches more than one package.
	ErrAmbiguous = errors.New("selection token prefix is ambiguous")
)

// minPrefixLen is the shortest token prefix ResolvePrefix accepts.
const minPrefixLen = 8

// Source is anything that can produce a result snapshot.
type Source interface {
	Snapshot() Snapshot
}

// Resolve looks token up in both sections of src's current snapshot.
func Resolve(src Source, token uuid.UUID) (brew.Package, error) {
	snap := src.Snapshot()
	return find(snap.Formulae, snap.Casks, token)
}

func find(formulae, casks []brew.Package, token uuid.UUID) (brew.Package, error) {
	for _, pkg := range formulae {
		if pkg.Token == token {
			return pkg, nil
		}
	}
	for _, pkg := range casks {
		if pkg.Token == token {
			return pkg, nil
		}
	}
	return brew.Package{}, fmt.Errorf("token %s: %w", token, ErrNotFound)
}

// ResolvePrefix accepts either a full token or a unique prefix of at least
// eight characters, as printed by the search table.
func ResolvePrefix(src Source, prefix string) (brew.Package, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))

	if token, err := uuid.Parse(prefix); err == nil {
		return Resolve(src, token)
	}
	if len(prefix) < minPrefixLen {
		return brew.Package{}, fmt.Errorf("token %q is too short (need at least %d characters)", prefix, minPrefixLen)
	}

	snap := src.Snapshot()
	var (
		match brew.Package
		count int
	)
	for _, section := range [][]brew.Package{snap.Formulae, snap.Casks} {
		for _, pkg := range section {
			if strings.HasPrefix(pkg.Token.String(), prefix) {
				match = pkg
				count++
			}
		}
	}

	switch count {
	case 0:
		return brew.Package{}, fmt.Errorf("token %s: %w", prefix, ErrNotFound)
	case 1:
		return match, nil
	default:
		return brew.Package{}, fmt.Errorf("token %s matches %d packages: %w", prefix, count, ErrAmbiguous)
	}
}

// ShortToken returns the prefix of token shown to users.
func ShortToken(token uuid.UUID) string {
	return token.String()[:minPrefixLen]
}
