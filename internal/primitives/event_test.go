package primitives

import "testing"

func TestNewEvent(t *testing.T) {
	cur := &Entry{URL: "http://site.test/b"}
	prev := &Entry{URL: "http://site.test/a"}
	e := NewEvent(InitStateChange, cur, prev)
	if e.Name != InitStateChange {
		t.Errorf("got Name=%q want %q", e.Name, InitStateChange)
	}
	if e.Current != cur || e.Previous != prev {
		t.Errorf("entries not passed through: %+v", e)
	}
}

func TestEventNameValid(t *testing.T) {
	for _, n := range EventNames {
		if !n.Valid() {
			t.Errorf("%q should be valid", n)
		}
	}
	if EventName("pageLoaded").Valid() {
		t.Error("unknown name reported valid")
	}
}

func TestClickModified(t *testing.T) {
	cases := []struct {
		name  string
		click Click
		want  bool
	}{
		{"primary", Click{Button: 1}, false},
		{"unset button", Click{}, false},
		{"middle", Click{Button: 2}, true},
		{"secondary", Click{Button: 3}, true},
		{"meta", Click{Button: 1, Meta: true}, true},
		{"ctrl", Click{Button: 1, Ctrl: true}, true},
		{"shift", Click{Button: 1, Shift: true}, true},
		{"alt", Click{Button: 1, Alt: true}, true},
	}
	for _, tc := range cases {
		if got := tc.click.Modified(); got != tc.want {
			t.Errorf("%s: Modified() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestClickPreventDefault(t *testing.T) {
	c := &Click{Button: 1}
	c.PreventDefault()
	c.StopPropagation()
	if !c.DefaultPrevented || !c.PropagationStopped {
		t.Errorf("flags not set: %+v", c)
	}
}
