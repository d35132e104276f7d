package farm

import "farmgrid.io/internal/protocol"

func (f *Farm) pushEvent(e protocol.Event) {
	f.events = append(f.events, e)
	f.stats.EventsEmitted.Add(1)
}

func actionResult(tick uint64, ref string, ok bool, code string, message string) protocol.Event {
	e := protocol.Event{
		"t":    tick,
		"type": "ACTION_RESULT",
		"ref":  ref,
		"ok":   ok,
	}
	if code != "" {
		e["code"] = code
	}
	if message != "" {
		e["message"] = message
	}
	return e
}

// result records the command outcome and keeps unknown codes off the wire.
func (f *Farm) result(nowTick uint64, ref string, ok bool, code, message string) {
	if ok {
		f.stats.CommandsOK.Add(1)
	} else {
		f.stats.CommandsFailed.Add(1)
	}
	if !protocol.IsKnownCode(code) {
		f.logf("unknown result code %q for %s", code, ref)
		code = protocol.ErrInternal
	}
	f.pushEvent(actionResult(nowTick, ref, ok, code, message))
}

// resultOK is a success result carrying extra payload keys.
func (f *Farm) resultOK(nowTick uint64, ref string, extra protocol.Event) {
	f.stats.CommandsOK.Add(1)
	e := protocol.Event{
		"t":    nowTick,
		"type": "ACTION_RESULT",
		"ref":  ref,
		"ok":   true,
	}
	for k, v := range extra {
		e[k] = v
	}
	f.pushEvent(e)
}
