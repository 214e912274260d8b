package ledger

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"stockbook/internal/core/apperror"
	"stockbook/pkg/logger"
)

// Rule is a movement guard policy expressed in CEL. Expressions must
// evaluate to bool; a false result rejects the movement with Message.
//
// Available variables:
//
//	kind         string  movement type (INBOUND, OUTBOUND, ADJUSTMENT)
//	quantity     double  absolute movement quantity
//	unit_cost    double  cost snapshot of the movement
//	sku          string  item SKU
//	warehouse_id string  warehouse UUID
//	available    double  item's available quantity before the movement
type Rule struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Message    string `json:"message"`
}

type compiledRule struct {
	rule    Rule
	program cel.Program
}

// Guard evaluates movement guard policies against pending journal entries.
// Rules are compiled once at construction; evaluation is cheap and safe for
// concurrent use.
type Guard struct {
	rules []compiledRule
}

// NewGuard compiles the given rules. A rule that fails to compile or does
// not produce bool aborts construction; guards are configuration, and bad
// configuration should fail at startup, not per movement.
func NewGuard(rules []Rule) (*Guard, error) {
	env, err := cel.NewEnv(
		cel.Variable("kind", cel.StringType),
		cel.Variable("quantity", cel.DoubleType),
		cel.Variable("unit_cost", cel.DoubleType),
		cel.Variable("sku", cel.StringType),
		cel.Variable("warehouse_id", cel.StringType),
		cel.Variable("available", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	g := &Guard{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		ast, issues := env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %q must evaluate to bool, got %s", r.Name, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program rule %q: %w", r.Name, err)
		}
		g.rules = append(g.rules, compiledRule{rule: r, program: prg})
	}
	return g, nil
}

// Check runs every rule against the pending entry. The first rule that
// evaluates to false rejects the movement. Evaluation errors (bad runtime
// data, not bad rules) are logged and treated as a pass so a broken rule
// cannot freeze the warehouse.
func (g *Guard) Check(ctx context.Context, tx *InventoryTransaction) error {
	if g == nil || len(g.rules) == 0 {
		return nil
	}

	cost, _ := tx.UnitCost.Float64()
	input := map[string]any{
		"kind":         string(tx.Type),
		"quantity":     tx.ChangeQty.Abs().Float64(),
		"unit_cost":    cost,
		"sku":          tx.SKU,
		"warehouse_id": tx.WarehouseID.String(),
		"available":    tx.PreviousQty.Float64(),
	}

	for _, cr := range g.rules {
		out, _, err := cr.program.Eval(input)
		if err != nil {
			logger.Warn(ctx, "guard rule evaluation failed",
				"rule", cr.rule.Name, "error", err)
			continue
		}
		if passed, ok := out.Value().(bool); ok && !passed {
			msg := cr.rule.Message
			if msg == "" {
				msg = fmt.Sprintf("Movement rejected by policy %s", cr.rule.Name)
			}
			return apperror.NewBusinessRule(apperror.CodeMovementRejected, msg).
				WithDetail("rule", cr.rule.Name)
		}
	}
	return nil
}
