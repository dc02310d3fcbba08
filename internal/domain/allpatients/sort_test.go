package allpatients

import "testing"

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestSortRows(t *testing.T) {
	rows := []Row{
		{ID: "1", Name: "tigist Alemu"},
		{ID: "2", Name: "Abebe Kebede"},
		{ID: "3", Name: "Selam Haile"},
		{ID: "4", Name: "abebe Kebede"},
	}

	SortRows(rows, "name", false)
	want := []string{"Abebe Kebede", "abebe Kebede", "Selam Haile", "tigist Alemu"}
	for i, n := range names(rows) {
		if n != want[i] {
			t.Fatalf("ascending: got %v, want %v", names(rows), want)
		}
	}

	SortRows(rows, "name", true)
	want = []string{"tigist Alemu", "Selam Haile", "Abebe Kebede", "abebe Kebede"}
	for i, n := range names(rows) {
		if n != want[i] {
			t.Fatalf("descending: got %v, want %v", names(rows), want)
		}
	}
}

func TestSortRows_UnsortableKey(t *testing.T) {
	rows := []Row{{ID: "2", Gender: "Male"}, {ID: "1", Gender: "Female"}}
	SortRows(rows, "gender", false)
	if rows[0].ID != "2" {
		t.Error("expected rows untouched for a non-sortable column")
	}
}
