package yaml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const billingComponent = `apiVersion: oda.tmforum.org/v1
kind: Component
metadata:
  name: TMFC999-Billing
spec:
  coreFunction:
    exposedAPIs:
      - id: BILLING
        name: billing
        required: true
      - id: TMF688
        name: event
        required: false
    dependentAPIs:
      - id: TMF632
        name: party
        required: false
  securityFunction:
    exposedAPIs:
      - id: TMF669
        name: partyrole
        required: true
`

func TestComponentParser_Parse_Valid(t *testing.T) {
	parser := NewComponentParser()

	spec, err := parser.Parse([]byte(billingComponent))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if spec.Name != "TMFC999-Billing" {
		t.Errorf("Name = %v, want TMFC999-Billing", spec.Name)
	}
	if len(spec.ExposedAPIs) != 2 {
		t.Fatalf("ExposedAPIs count = %d, want 2", len(spec.ExposedAPIs))
	}
	if spec.ExposedAPIs[0].ID != "BILLING" || !spec.ExposedAPIs[0].Required {
		t.Errorf("ExposedAPIs[0] = %+v, want required BILLING", spec.ExposedAPIs[0])
	}
	if spec.ExposedAPIs[1].Required {
		t.Error("ExposedAPIs[1] should be optional")
	}
	if len(spec.DependentAPIs) != 1 || spec.DependentAPIs[0].ID != "TMF632" {
		t.Errorf("DependentAPIs = %+v, want [TMF632]", spec.DependentAPIs)
	}
	if len(spec.SecurityAPIs) != 1 || spec.SecurityAPIs[0].ID != "TMF669" {
		t.Errorf("SecurityAPIs = %+v, want [TMF669]", spec.SecurityAPIs)
	}
}

func TestComponentParser_Parse_MissingSections(t *testing.T) {
	parser := NewComponentParser()

	spec, err := parser.Parse([]byte("metadata:\n  name: empty\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(spec.ExposedAPIs)+len(spec.DependentAPIs)+len(spec.SecurityAPIs) != 0 {
		t.Errorf("expected no APIs, got %+v", spec)
	}
}

func TestComponentParser_Parse_DropsEntriesWithoutID(t *testing.T) {
	parser := NewComponentParser()

	spec, err := parser.Parse([]byte(`spec:
  coreFunction:
    exposedAPIs:
      - name: anonymous
        required: true
      - id: TMF620
        required: true
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(spec.ExposedAPIs) != 1 || spec.ExposedAPIs[0].ID != "TMF620" {
		t.Errorf("ExposedAPIs = %+v, want [TMF620]", spec.ExposedAPIs)
	}
}

func TestComponentParser_Parse_Invalid(t *testing.T) {
	parser := NewComponentParser()

	if _, err := parser.Parse([]byte("spec: [unclosed")); err == nil {
		t.Error("Parse() should fail on malformed YAML")
	}
}

func TestComponentParser_GetSpecification(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "TMFC999-Billing.yaml")
	if err := os.WriteFile(path, []byte(billingComponent), 0600); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	spec, err := NewComponentParser().GetSpecification(context.Background(), path)
	if err != nil {
		t.Fatalf("GetSpecification() error = %v", err)
	}
	if spec.Name != "TMFC999-Billing" {
		t.Errorf("Name = %v, want TMFC999-Billing", spec.Name)
	}

	if _, err := NewComponentParser().GetSpecification(context.Background(), filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("GetSpecification() should fail for a missing file")
	}
}
