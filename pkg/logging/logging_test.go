package logging

import "testing"

type recorder struct{ msgs []string }

func (r *recorder) InfoObj(msg, _ string, _ interface{})  { r.msgs = append(r.msgs, "info:"+msg) }
func (r *recorder) DebugObj(msg, _ string, _ interface{}) { r.msgs = append(r.msgs, "debug:"+msg) }
func (r *recorder) WarnObj(msg, _ string, _ interface{})  { r.msgs = append(r.msgs, "warn:"+msg) }
func (r *recorder) ErrorObj(msg, _ string, _ interface{}) { r.msgs = append(r.msgs, "error:"+msg) }

func TestEnsure(t *testing.T) {
	if _, ok := Ensure(nil).(Nop); !ok {
		t.Fatalf("nil logger should become Nop")
	}

	rec := &recorder{}
	log := Ensure(rec)
	log.InfoObj("built", "entry", "apis/tracker")
	log.WarnObj("slow", "entry", nil)
	if len(rec.msgs) != 2 || rec.msgs[0] != "info:built" || rec.msgs[1] != "warn:slow" {
		t.Fatalf("unexpected calls %v", rec.msgs)
	}

	// Nop must be safe to call with any payload.
	Nop{}.ErrorObj("x", "k", map[string]any{"a": 1})
}
