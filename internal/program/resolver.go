package program

// TurboRule resolves a turbo day to a concrete execution shape.
// The mapping is owned by the program-content layer and keyed by day number;
// this package only requires it to be deterministic and total.
type TurboRule interface {
	// Resolve returns ExecutionCircuit or ExecutionSets for the given day.
	Resolve(day int) ExecutionType
}

// TurboRuleFunc adapts a plain function to the TurboRule interface.
type TurboRuleFunc func(day int) ExecutionType

func (f TurboRuleFunc) Resolve(day int) ExecutionType {
	return f(day)
}

// EffectiveType maps a nominal execution type to the concrete shape a session
// runs in. Non-turbo types pass through unchanged. Turbo consults the rule;
// anything the rule returns other than sets is treated as circuit, keeping the
// mapping total even against a misbehaving rule.
func EffectiveType(rule TurboRule, day int, nominal ExecutionType) ExecutionType {
	if nominal != ExecutionTurbo {
		if nominal == ExecutionSets {
			return ExecutionSets
		}
		return ExecutionCircuit
	}
	if rule != nil && rule.Resolve(day) == ExecutionSets {
		return ExecutionSets
	}
	return ExecutionCircuit
}

// IsTurboWithSets reports whether a nominally turbo day resolved to the sets
// shape. Sessions use this to degenerate to a single set per exercise instead
// of a planned-count-driven shape.
func IsTurboWithSets(rule TurboRule, day int, nominal ExecutionType) bool {
	return nominal == ExecutionTurbo && EffectiveType(rule, day, nominal) == ExecutionSets
}
