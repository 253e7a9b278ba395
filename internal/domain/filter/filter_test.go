package filter

import "testing"

func TestClause(t *testing.T) {
	tests := []struct {
		op    Operator
		field string
		value string
		want  string
	}{
		{OpEqual, "kubernetes.namespace", "kube-system", ` AND kubernetes.namespace: "kube-system"`},
		{OpNotEqual, "level", "info", ` AND NOT level: "info"`},
		{OpExists, "error.message", "ignored", ` AND _exists_: error.message`},
		{OpEqual, "msg", `say "hi" \o/`, ` AND msg: "say \"hi\" \\o/"`},
	}
	for _, tt := range tests {
		got, err := Clause(tt.op, tt.field, tt.value)
		if err != nil {
			t.Fatalf("Clause(%s): %v", tt.op, err)
		}
		if got != tt.want {
			t.Errorf("Clause(%s) = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestClause_Errors(t *testing.T) {
	if _, err := Clause(OpEqual, "", "v"); err == nil {
		t.Error("expected error for empty field")
	}
	if _, err := Clause("gt", "f", "v"); err == nil {
		t.Error("expected error for unknown operator")
	}
}

func TestApply(t *testing.T) {
	if got := Apply("*", Exists("host")); got != "* AND _exists_: host" {
		t.Errorf("Apply = %q", got)
	}
}

func TestParseOperator(t *testing.T) {
	for _, s := range []string{"eq", "neq", "exists"} {
		if _, err := ParseOperator(s); err != nil {
			t.Errorf("ParseOperator(%s): %v", s, err)
		}
	}
	if _, err := ParseOperator("like"); err == nil {
		t.Error("expected error")
	}
}
