package inmemdb

import (
	"context"
	"fmt"
	"testing"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/curriculum"
)

func TestCurriculumRepository_QueryCurriculumsByTeacher_ordering(t *testing.T) {
	db := Open()
	repo := NewCurriculumRepository(db)
	ctx := context.Background()

	// duplicate titles on purpose
	for i, title := range []string{"Biology", "Algebra", "Biology", "Calculus"} {
		_, err := repo.CreateCurriculum(ctx, curriculum.Curriculum{
			Title:      title,
			UniqueCode: fmt.Sprintf("TSTC%04d", i),
			TeacherID:  "t1",
		})
		if err != nil {
			t.Fatalf("CreateCurriculum(%q): %v", title, err)
		}
	}

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     []string
	}{
		{
			name:     "title ascending",
			ordering: []core.DBOrdering{{Field: "title", Ascending: true}},
			want:     []string{"Algebra", "Biology", "Biology", "Calculus"},
		},
		{
			name:     "title descending",
			ordering: []core.DBOrdering{{Field: "title"}},
			want:     []string{"Calculus", "Biology", "Biology", "Algebra"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curs, err := repo.QueryCurriculumsByTeacher(ctx, "t1", tt.ordering)
			if err != nil {
				t.Fatalf("QueryCurriculumsByTeacher(): %v", err)
			}
			got := make([]string, 0, len(curs))
			for _, cur := range curs {
				got = append(got, cur.Title)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d curriculums, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("titles = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
