package risk

// Evaluate implements evaluate(signal, account_status) ->
// {accepted, reason, adjusted_signal?}. It runs the ordered gate
// sequence, then the per-symbol cooldown, and only sizes the position
// once every gate has passed.
func (e *Evaluator) Evaluate(in SizingInput) Evaluation {
	e.state.UpdateEquityPeak(in.Equity)
	account := e.state.Snapshot(in.Equity)

	checks, rejectReason := e.runChecks(account, in)
	if rejectReason != "" {
		return Evaluation{Accepted: false, Reason: rejectReason, Checks: checks}
	}

	if onCooldown, reason := e.cooldownActive(in.Symbol, in.Now); onCooldown {
		checks = append(checks, CheckResult{Name: "cooldown", Passed: false, Message: reason})
		return Evaluation{Accepted: false, Reason: reason, Checks: checks}
	}
	checks = append(checks, CheckResult{Name: "cooldown", Passed: true, Message: "no active cooldown"})

	signal := e.size(account, in)
	if signal.Volume <= 0 {
		const reason = "sized position rounds to zero volume"
		checks = append(checks, CheckResult{Name: "sizing", Passed: false, Message: reason})
		return Evaluation{Accepted: false, Reason: reason, Checks: checks}
	}
	checks = append(checks, CheckResult{Name: "sizing", Passed: true, Message: signal.SizingMethod})

	return Evaluation{Accepted: true, Checks: checks, Signal: &signal}
}
