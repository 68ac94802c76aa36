package present

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"pairScope/internal/model"
	"pairScope/internal/overview"
)

// Render produces the text shown for a finished calculation.
func Render(c *model.Calculation) string {
	if c == nil {
		return ""
	}
	t := c.Trade
	var b strings.Builder
	fmt.Fprintf(&b, "Input:        %s %s\n", Amount(t.AmountIn), t.InputToken)
	fmt.Fprintf(&b, "Output:       %s %s\n", Amount(t.AmountOut), t.OutputToken)
	fmt.Fprintf(&b, "Price:        1 %s = %s %s\n", t.InputToken, Amount(t.ExecutionPrice), t.OutputToken)
	fmt.Fprintf(&b, "Price impact: %s%% (%s%% without fee)\n", Percent(t.PriceImpact, PercentPlaces), Percent(t.RealImpactWithoutFee, PercentPlaces))
	fmt.Fprintf(&b, "Max impact:   %s%%\n", Percent(c.MaxImpact, PercentPlaces))
	if c.Remediation.Accepted {
		b.WriteString("Result:       within max impact\n")
		return b.String()
	}
	b.WriteString("Result:       exceeds max impact\n")
	fmt.Fprintf(&b, "Add liquidity: %s %s + %s %s\n",
		Amount(c.Remediation.AddToInputReserve), t.InputToken,
		Amount(c.Remediation.AddToOutputReserve), t.OutputToken)
	return b.String()
}

// Record projects a calculation, or the error that stopped it, onto a JSONL
// record. Amounts keep full token precision.
func Record(req model.TradeRequest, c *model.Calculation, err error, now time.Time) model.CalculationRecord {
	rec := model.CalculationRecord{
		InputToken: req.InputToken,
		Amount:     req.Amount,
		MaxImpact:  req.MaxImpact,
		ComputedAt: now.UTC().Format(time.RFC3339),
	}
	if err != nil || c == nil {
		rec.Error = Notify(err).Message
		return rec
	}
	t := c.Trade
	rec.InputToken = t.InputToken.Symbol
	rec.OutputToken = t.OutputToken.Symbol
	rec.AmountOut = model.FormatUnits(t.AmountOut, t.OutputToken.Decimals)
	if t.AmountOutRaw != nil {
		rec.AmountOutRaw = t.AmountOutRaw.String()
	}
	rec.PriceImpact = Percent(t.PriceImpact, 6)
	rec.RealImpactWithoutFee = Percent(t.RealImpactWithoutFee, 6)
	rec.Accepted = c.Remediation.Accepted
	if !c.Remediation.Accepted {
		rec.AddToInputReserve = model.FormatUnits(c.Remediation.AddToInputReserve, t.InputToken.Decimals)
		rec.AddToOutputReserve = model.FormatUnits(c.Remediation.AddToOutputReserve, t.OutputToken.Decimals)
	}
	rec.BlockNumber = c.Snapshot.BlockNumber
	rec.ComputedAt = c.ComputedAt.UTC().Format(time.RFC3339)
	return rec
}

// RenderOverview produces the pair header text.
func RenderOverview(ov *overview.Overview) string {
	if ov == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Pair:      %s/%s %s\n", ov.Token0, ov.Token1, ov.Pair.Hex())
	fmt.Fprintf(&b, "Rates:     1 %s = %s %s, 1 %s = %s %s\n",
		ov.Token0, rate(ov.Token0Rate), ov.Token1,
		ov.Token1, rate(ov.Token1Rate), ov.Token0)
	fmt.Fprintf(&b, "Reserves:  %s %s, %s %s\n", Amount(ov.Reserve0), ov.Token0, Amount(ov.Reserve1), ov.Token1)
	if ov.BlockNumber > 0 {
		fmt.Fprintf(&b, "Block:     %d (%s)\n", ov.BlockNumber, ov.Source)
	}
	if w := ov.Window; w != nil {
		hours := w.Until.Sub(w.Since).Round(time.Hour).Hours()
		fmt.Fprintf(&b, "Volume %gh: %s %s, %s %s (%d swaps)\n", hours, Amount(w.Volume0), ov.Token0, Amount(w.Volume1), ov.Token1, w.SwapCount)
		note := ""
		if w.FeesEstimated {
			note = " (estimated)"
		}
		fmt.Fprintf(&b, "Fees %gh:   %s %s, %s %s%s\n", hours, Amount(w.Fees0), ov.Token0, Amount(w.Fees1), ov.Token1, note)
	}
	return b.String()
}

func rate(r *big.Rat) string {
	if r == nil {
		return "-"
	}
	return Amount(r)
}
