package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvmaster/internal/csvio"
)

// ErrUnknownAction is returned by ParseAction for names outside the action set.
var ErrUnknownAction = errors.New("unknown action")

// ActionKind identifies one entry of the action menu.
type ActionKind int

const (
	ActionCount ActionKind = iota + 1
	ActionHead
	ActionFilter
	ActionSelect
	ActionDedupe
	ActionGroup
	ActionSplit
	ActionSave
	ActionReset
	ActionEncoding
	ActionDelimiter
	ActionPush
)

var actionNames = map[ActionKind]string{
	ActionCount:     "count",
	ActionHead:      "head",
	ActionFilter:    "filter",
	ActionSelect:    "select",
	ActionDedupe:    "dedupe",
	ActionGroup:     "group",
	ActionSplit:     "split",
	ActionSave:      "save",
	ActionReset:     "reset",
	ActionEncoding:  "encoding",
	ActionDelimiter: "delimiter",
	ActionPush:      "push",
}

func (k ActionKind) String() string {
	if n, ok := actionNames[k]; ok {
		return n
	}
	return "action(" + strconv.Itoa(int(k)) + ")"
}

// Replaces reports whether a successful action of this kind becomes the
// session's current table.
func (k ActionKind) Replaces() bool {
	switch k {
	case ActionFilter, ActionSelect, ActionDedupe, ActionGroup:
		return true
	}
	return false
}

// Action is one parsed step. Only the fields relevant to Kind are set.
type Action struct {
	Kind ActionKind

	// N is the row count for head and the chunk size for split.
	N int

	// Text is the filter query, group column, save path, push target or
	// split base name.
	Text string

	Columns   []string
	Archive   string
	Encoding  csvio.Encoding
	Delimiter csvio.Delimiter
}

// String renders the action in the form ParseAction accepts.
func (a Action) String() string {
	name := a.Kind.String()
	switch a.Kind {
	case ActionHead:
		return name + "=" + strconv.Itoa(a.N)
	case ActionFilter, ActionGroup, ActionSave, ActionPush:
		return name + "=" + a.Text
	case ActionSelect:
		return name + "=" + strings.Join(a.Columns, ",")
	case ActionSplit:
		s := name + "=" + strconv.Itoa(a.N)
		if a.Text != "" || a.Archive != "" {
			s += "," + a.Text
		}
		if a.Archive != "" {
			s += "," + a.Archive
		}
		return s
	case ActionEncoding:
		return name + "=" + a.Encoding.String()
	case ActionDelimiter:
		return name + "=" + a.Delimiter.Name()
	}
	return name
}

// ParseAction reads one batch step such as "head=10", "select=Name,City"
// or "split=1000,part,out.zip". Names are case-insensitive; arguments are
// taken verbatim.
func ParseAction(s string) (Action, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(s), "=")
	name = strings.ToLower(strings.TrimSpace(name))

	var kind ActionKind
	for k, n := range actionNames {
		if n == name {
			kind = k
			break
		}
	}
	if kind == 0 {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}

	a := Action{Kind: kind}
	needArg := func() error {
		if !hasArg || arg == "" {
			return fmt.Errorf("%w: %s needs an argument (%s=...)", ErrInvalidAction, name, name)
		}
		return nil
	}

	switch kind {
	case ActionCount, ActionDedupe, ActionReset:
		if hasArg {
			return Action{}, fmt.Errorf("%w: %s takes no argument", ErrInvalidAction, name)
		}

	case ActionHead:
		if err := needArg(); err != nil {
			return Action{}, err
		}
		n, err := parsePositive(arg)
		if err != nil {
			return Action{}, fmt.Errorf("%w: head: %v", ErrInvalidAction, err)
		}
		a.N = n

	case ActionFilter:
		if !hasArg {
			return Action{}, fmt.Errorf("%w: filter needs an argument (filter=...)", ErrInvalidAction)
		}
		a.Text = arg

	case ActionSelect:
		if err := needArg(); err != nil {
			return Action{}, err
		}
		for _, c := range strings.Split(arg, ",") {
			a.Columns = append(a.Columns, strings.TrimSpace(c))
		}

	case ActionGroup, ActionSave, ActionPush:
		if err := needArg(); err != nil {
			return Action{}, err
		}
		a.Text = strings.TrimSpace(arg)

	case ActionSplit:
		if err := needArg(); err != nil {
			return Action{}, err
		}
		parts := strings.SplitN(arg, ",", 3)
		n, err := parsePositive(parts[0])
		if err != nil {
			return Action{}, fmt.Errorf("%w: split: %v", ErrInvalidAction, err)
		}
		a.N = n
		if len(parts) > 1 {
			a.Text = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			a.Archive = strings.TrimSpace(parts[2])
		}

	case ActionEncoding:
		if err := needArg(); err != nil {
			return Action{}, err
		}
		enc, err := csvio.ParseEncoding(arg)
		if err != nil {
			return Action{}, err
		}
		a.Encoding = enc

	case ActionDelimiter:
		if err := needArg(); err != nil {
			return Action{}, err
		}
		d, err := csvio.ParseDelimiter(arg)
		if err != nil {
			return Action{}, err
		}
		a.Delimiter = d
	}
	return a, nil
}

// ParseActions parses every step, stopping at the first bad one.
func ParseActions(steps []string) ([]Action, error) {
	out := make([]Action, 0, len(steps))
	for i, s := range steps {
		a, err := ParseAction(s)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
