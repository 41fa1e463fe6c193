package tabular_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fd1az/fba-sourcing/internal/apperror"
	"github.com/fd1az/fba-sourcing/internal/tabular"
)

type pair struct {
	id    string
	value string
}

func (p pair) Values() []string { return []string{p.id, p.value} }

func TestWrite_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	rows := []pair{{"B0ABCDEFGH", "1234.5"}, {"B0ZZZZZZZZ", "Mug, large"}}

	if err := tabular.Write(&buf, []string{"id", "value"}, rows, tabular.Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := "id,value\nB0ABCDEFGH,1234.5\nB0ZZZZZZZZ,\"Mug, large\"\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestWrite_RejectsRaggedRows(t *testing.T) {
	var buf bytes.Buffer
	err := tabular.Write(&buf, []string{"id"}, []pair{{"a", "b"}}, tabular.Options{})
	if apperror.GetCode(err) != apperror.CodeTabularWriteFailed {
		t.Fatalf("expected write failure, got %v", err)
	}
}

func TestRead_KeysCellsByHeader(t *testing.T) {
	in := "\ufeffid; title ;estimatedId\nB0ABCDEFGH;Garlic press\nB0ZZZZZZZZ;Mug;B0YYYYYYYY\n"

	rows, err := tabular.Read(strings.NewReader(in), tabular.Options{Delimiter: ';'})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Get("title") != "Garlic press" || rows[0].Get("estimatedId") != "" {
		t.Errorf("unexpected first row %v", rows[0])
	}
	if rows[1].Get("missing", "estimatedId") != "B0YYYYYYYY" {
		t.Errorf("Get should fall through to the next field name, row %v", rows[1])
	}
}

func TestRead_TabDelimitedKeepsEmptyCells(t *testing.T) {
	in := "id\testimatedId\ttitle\nB0ABCDEFGH\t\tSkillet\n\tB0YYYYYYYY\t\n\t\t Loose title \n"

	rows, err := tabular.Read(strings.NewReader(in), tabular.Options{Delimiter: '\t'})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []map[string]string{
		{"id": "B0ABCDEFGH", "estimatedId": "", "title": "Skillet"},
		{"id": "", "estimatedId": "B0YYYYYYYY", "title": ""},
		{"id": "", "estimatedId": "", "title": "Loose title"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, w := range want {
		for field, v := range w {
			if rows[i][field] != v {
				t.Errorf("row %d %s = %q, want %q", i, field, rows[i][field], v)
			}
		}
	}
}

func TestRead_Empty(t *testing.T) {
	rows, err := tabular.Read(strings.NewReader(""), tabular.Options{})
	if err != nil || rows != nil {
		t.Fatalf("expected no rows and no error, got %v %v", rows, err)
	}
}

func TestParseHelpers(t *testing.T) {
	if _, err := tabular.ParseMoney("price", "-1"); apperror.GetCode(err) != apperror.CodeInvalidRow {
		t.Errorf("negative money should be an invalid row, got %v", err)
	}
	if v, err := tabular.ParseOptionalInt("rank", " "); err != nil || v != nil {
		t.Errorf("blank optional int = %v, %v", v, err)
	}
	if b, err := tabular.ParseBool("estimated", "true"); err != nil || !b {
		t.Errorf("ParseBool(true) = %v, %v", b, err)
	}
	if _, err := tabular.ParseBool("estimated", "maybe"); err == nil {
		t.Error("expected error for non-boolean literal")
	}
}
