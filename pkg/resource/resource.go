// Package resource implements the command resource arbiter described in
// §4.7: a priority-ordered admission check over a declared resource
// hierarchy, deciding which of a batch of fixed commands may proceed this
// cycle.
package resource

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// edge is one child reference of a hierarchy node, with the weight of
// capacity it consumes from its parent per unit consumed locally.
type edge struct {
	child  string
	weight float64
}

// declaration is one parsed line of the hierarchy file (§4.7): "name
// max_consumable [child1_weight child1_name ...]".
type declaration struct {
	maxConsumable float64
	children      []edge
}

// Request is one command's resource demand for a single named resource,
// already fixed to concrete scalars (plan.ResourceValue without its name
// carried separately so arbiter stays decoupled from the plan package).
type Request struct {
	Name          string
	Priority      int
	LowerBound    float64
	UpperBound    float64
	ReleaseAtTerm bool
}

// Command groups a command identity with its fixed resource requests and
// the priority it arbitrates under (lower numeric value wins a contested
// resource, same ordering sense as Request.Priority).
type Command struct {
	ID       string
	Priority int
	Requests []Request
}

// Arbiter is the command resource arbiter. Its zero value (via New) has
// no declared hierarchy: every named resource defaults to capacity 1.0.
type Arbiter struct {
	mu           sync.Mutex
	declarations map[string]declaration
	locked       map[string]map[string]Request // resource name -> command ID -> request
}

// New creates an empty Arbiter. Call LoadHierarchy to declare resources
// from a hierarchy file.
func New() *Arbiter {
	return &Arbiter{
		declarations: make(map[string]declaration),
		locked:       make(map[string]map[string]Request),
	}
}

// LoadHierarchy parses a hierarchy definition file (§4.7's declared text
// format) and replaces any previously loaded declarations.
func (a *Arbiter) LoadHierarchy(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("resource: open hierarchy file: %w", err)
	}
	defer f.Close()

	decls := make(map[string]declaration)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := fields[0]
		maxConsumable, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("resource: parsing max_consumable for %q: %w", name, err)
		}
		var children []edge
		rest := fields[2:]
		for i := 0; i+1 < len(rest); i += 2 {
			weight, err := strconv.ParseFloat(rest[i], 64)
			if err != nil {
				return fmt.Errorf("resource: parsing child weight under %q: %w", name, err)
			}
			children = append(children, edge{child: rest[i+1], weight: weight})
		}
		decls[name] = declaration{maxConsumable: maxConsumable, children: children}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("resource: reading hierarchy file: %w", err)
	}

	a.mu.Lock()
	a.declarations = decls
	a.mu.Unlock()
	return nil
}

func (a *Arbiter) maxConsumable(name string) float64 {
	if d, ok := a.declarations[name]; ok {
		return d.maxConsumable
	}
	return 1.0
}

// expand walks the hierarchy starting at name, applying demand to name
// and, transitively weighted, to every ancestor-consuming resource it
// feeds. levels accumulates tentative committed levels.
func (a *Arbiter) expand(name string, demand float64, levels map[string]float64) {
	levels[name] += demand
	d, ok := a.declarations[name]
	if !ok {
		return
	}
	for _, e := range d.children {
		a.expand(e.child, demand*e.weight, levels)
	}
}

func withinBounds(level, lower, upper, max float64) bool {
	if level > max {
		return false
	}
	if upper != 0 && level > upper {
		return false
	}
	if lower != 0 && level < lower {
		return false
	}
	return true
}

// Arbitrate sorts commands by ascending priority (higher precedence) and
// admits each in turn if its demand keeps every touched resource within
// bounds, given resources already locked by prior accepted commands
// still running. It returns the accepted and rejected command IDs.
func (a *Arbiter) Arbitrate(commands []Command) (accepted, rejected []string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sorted := append([]Command(nil), commands...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	committed := make(map[string]float64)
	for resourceName, holders := range a.locked {
		for _, req := range holders {
			a.expand(resourceName, req.UpperBound, committed)
		}
	}

	for _, cmd := range sorted {
		trial := make(map[string]float64, len(committed))
		for k, v := range committed {
			trial[k] = v
		}

		ok := true
		seen := make(map[string]bool, len(cmd.Requests))
		for _, req := range cmd.Requests {
			if seen[req.Name] {
				continue // duplicate resource entry within one command: diagnostics-only
			}
			seen[req.Name] = true
			demand := req.UpperBound
			a.expand(req.Name, demand, trial)
		}
		for name, level := range trial {
			if !withinBounds(level, 0, 0, a.maxConsumable(name)) {
				ok = false
				break
			}
		}
		for _, req := range cmd.Requests {
			if !withinBounds(trial[req.Name], req.LowerBound, req.UpperBound, a.maxConsumable(req.Name)) {
				ok = false
				break
			}
		}

		if !ok {
			rejected = append(rejected, cmd.ID)
			continue
		}

		accepted = append(accepted, cmd.ID)
		committed = trial
		for _, req := range cmd.Requests {
			if a.locked[req.Name] == nil {
				a.locked[req.Name] = make(map[string]Request)
			}
			a.locked[req.Name][cmd.ID] = req
		}
	}
	return accepted, rejected
}

// ReleaseResourcesForCommand frees every resource locked by cmdID,
// called at command termination (§4.7 step 4).
func (a *Arbiter) ReleaseResourcesForCommand(cmdID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for name, holders := range a.locked {
		delete(holders, cmdID)
		if len(holders) == 0 {
			delete(a.locked, name)
		}
	}
}
