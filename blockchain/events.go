package blockchain

import (
	"strconv"
	"strings"

	abciapi "cosmossdk.io/api/tendermint/abci"
	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/LumeraProtocol/testnet-seeder/types"
)

// Receipts appended for the transaction's own execution result, so that the
// plain and batch success signals are available on every chain.
var (
	execSuccess    = types.Receipt{Module: "System", Event: "ExtrinsicSuccess"}
	execFailed     = types.Receipt{Module: "System", Event: "ExtrinsicFailed"}
	batchCompleted = types.Receipt{Module: "Utility", Event: "BatchCompleted"}
)

// canonicalModules maps lowercased module names without separators onto the
// module names used by the confirmation specs, e.g. address_pools -> AddressPools.
var canonicalModules = moduleIndex(types.PlainTxSpec, types.BatchTxSpec, types.ClearingTxSpec)

func moduleIndex(specs ...types.ConfirmationSpec) map[string]string {
	idx := make(map[string]string, len(specs))
	for _, s := range specs {
		idx[moduleKey(s.Module)] = s.Module
	}
	return idx
}

func moduleKey(name string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(name))
}

func canonicalModule(name string) string {
	if m, ok := canonicalModules[moduleKey(name)]; ok {
		return m
	}
	return name
}

type attribute struct {
	key, value string
}

// toEventRecord maps an ABCI event onto a receipt:
//   - "Module.Event" is taken as is;
//   - typed events "pkg.module.v1.EventName" split on the last dot, the module
//     being the last non-version package segment and the name losing its
//     "Event" prefix;
//   - anything else takes its module from the "module" attribute and keeps the
//     type as the event name.
func toEventRecord(typ string, attrs []attribute) types.EventRecord {
	rec := types.EventRecord{Attributes: make(map[string]string, len(attrs))}
	for _, a := range attrs {
		if _, ok := rec.Attributes[a.key]; !ok {
			rec.Attributes[a.key] = a.value
		}
	}

	if pkg, name, ok := cutLast(typ, "."); ok {
		if !strings.Contains(pkg, ".") {
			rec.Receipt = types.Receipt{Module: canonicalModule(pkg), Event: name}
			return rec
		}
		if module := protoModule(pkg); module != "" {
			rec.Receipt = types.Receipt{Module: canonicalModule(module), Event: typedEventName(name)}
			return rec
		}
	}

	module := rec.Attributes["module"]
	if module == "" {
		module = typ
	}
	rec.Receipt = types.Receipt{Module: canonicalModule(module), Event: typ}
	return rec
}

func cutLast(s, sep string) (before, after string, ok bool) {
	i := strings.LastIndex(s, sep)
	if i <= 0 || i == len(s)-len(sep) {
		return "", "", false
	}
	return s[:i], s[i+len(sep):], true
}

// protoModule returns the module segment of a proto package such as
// "cosmos.bank.v1beta1" (bank).
func protoModule(pkg string) string {
	parts := strings.Split(pkg, ".")
	for i := len(parts) - 1; i > 0; i-- {
		if parts[i] != "" && !isVersion(parts[i]) {
			return parts[i]
		}
	}
	return ""
}

// isVersion reports whether s looks like a proto package version: v1, v1beta1, v2alpha1.
func isVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	rest := strings.TrimLeft(s[1:], "0123456789")
	if len(rest) == len(s)-1 {
		return false
	}
	for _, stage := range []string{"alpha", "beta"} {
		if tail, ok := strings.CutPrefix(rest, stage); ok {
			rest = strings.TrimLeft(tail, "0123456789")
		}
	}
	return rest == ""
}

func typedEventName(name string) string {
	if trimmed, ok := strings.CutPrefix(name, "Event"); ok && trimmed != "" {
		return trimmed
	}
	return name
}

// resultRecords maps the transaction's execution result. The SDK rejects
// transactions without messages and runs a transaction's messages all or none,
// so every successful transaction also completes a batch; its "calls"
// attribute is set when the message count is known.
func resultRecords(code uint32, codespace, log string, msgs int) []types.EventRecord {
	if code != 0 {
		return []types.EventRecord{{
			Receipt: execFailed,
			Attributes: map[string]string{
				"code":      strconv.FormatUint(uint64(code), 10),
				"codespace": codespace,
				"reason":    log,
			},
		}}
	}

	batch := types.EventRecord{Receipt: batchCompleted, Attributes: map[string]string{}}
	if msgs > 0 {
		batch.Attributes["calls"] = strconv.Itoa(msgs)
	}
	return []types.EventRecord{batch, {Receipt: execSuccess, Attributes: map[string]string{}}}
}

// countMsgs derives the number of executed messages from the event set: the
// distinct msg_index values, or failing that the "message" events carrying an
// action.
func countMsgs(events []types.EventRecord) int {
	indexes := map[string]struct{}{}
	actions := 0
	for _, ev := range events {
		if idx, ok := ev.Attribute("msg_index"); ok {
			indexes[idx] = struct{}{}
		}
		if ev.Receipt.Event == "message" {
			if _, ok := ev.Attribute("action"); ok {
				actions++
			}
		}
	}
	if len(indexes) > 0 {
		return len(indexes)
	}
	return actions
}

func fromAPIEvents(events []*abciapi.Event) []types.EventRecord {
	out := make([]types.EventRecord, 0, len(events)+2)
	for _, ev := range events {
		if ev == nil {
			continue
		}
		attrs := make([]attribute, 0, len(ev.GetAttributes()))
		for _, a := range ev.GetAttributes() {
			if a == nil {
				continue
			}
			attrs = append(attrs, attribute{key: a.GetKey(), value: a.GetValue()})
		}
		// abci.Event uses GetType_() since 'type' is a reserved field name
		out = append(out, toEventRecord(ev.GetType_(), attrs))
	}
	return out
}

func fromCometEvents(events []abcitypes.Event) []types.EventRecord {
	out := make([]types.EventRecord, 0, len(events)+2)
	for _, ev := range events {
		attrs := make([]attribute, 0, len(ev.Attributes))
		for _, a := range ev.Attributes {
			attrs = append(attrs, attribute{key: a.Key, value: a.Value})
		}
		out = append(out, toEventRecord(ev.Type, attrs))
	}
	return out
}
