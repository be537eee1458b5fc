package changes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(path string, status FileStatus) WorkingDirectoryFile {
	return NewWorkingDirectoryFile(path, status)
}

func stateWith(files []WorkingDirectoryFile, sel Selection) State {
	s := NewState()
	s.WorkingDirectory = NewWorkingDirectory(files)
	s.Selection = sel
	return s
}

func ids(files []WorkingDirectoryFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.ID()
	}
	return out
}

func TestUpdateChangedFiles_KeepsSingleSelectionAndDiff(t *testing.T) {
	diff := &Diff{Path: "a.txt", Text: "@@ -1 +1 @@"}
	prev := stateWith(
		[]WorkingDirectoryFile{file("a.txt", StatusModified)},
		WorkingDirectorySelection{SelectedFileIDs: []string{"Modified+a.txt"}, Diff: diff},
	)

	result := UpdateChangedFiles(prev, []WorkingDirectoryFile{
		file("b.txt", StatusNew),
		file("a.txt", StatusModified),
	}, false)

	sel, ok := result.Selection.(WorkingDirectorySelection)
	require.True(t, ok)
	assert.Equal(t, []string{"Modified+a.txt"}, sel.SelectedFileIDs)
	assert.Same(t, diff, sel.Diff)
	assert.Equal(t, []string{"Modified+a.txt", "New+b.txt"}, ids(result.WorkingDirectory.Files()))
}

func TestUpdateChangedFiles_SortsCaseInsensitively(t *testing.T) {
	result := UpdateChangedFiles(NewState(), []WorkingDirectoryFile{
		file("zeta.go", StatusModified),
		file("Beta.go", StatusModified),
		file("alpha.go", StatusModified),
		file("README.md", StatusNew),
	}, false)

	var paths []string
	for _, f := range result.WorkingDirectory.Files() {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"alpha.go", "Beta.go", "README.md", "zeta.go"}, paths)
}

func TestUpdateChangedFiles_DefaultsToFirstFile(t *testing.T) {
	prev := stateWith(
		[]WorkingDirectoryFile{file("gone.txt", StatusModified)},
		WorkingDirectorySelection{SelectedFileIDs: []string{"Modified+gone.txt"}, Diff: &Diff{}},
	)

	result := UpdateChangedFiles(prev, []WorkingDirectoryFile{
		file("b.txt", StatusModified),
		file("A.txt", StatusNew),
	}, false)

	sel := result.Selection.(WorkingDirectorySelection)
	assert.Equal(t, []string{"New+A.txt"}, sel.SelectedFileIDs)
	assert.Nil(t, sel.Diff)
}

func TestUpdateChangedFiles_Empty(t *testing.T) {
	prev := stateWith(
		[]WorkingDirectoryFile{file("a.txt", StatusModified)},
		WorkingDirectorySelection{SelectedFileIDs: []string{"Modified+a.txt"}},
	)

	result := UpdateChangedFiles(prev, nil, false)

	assert.Equal(t, 0, result.WorkingDirectory.Len())
	assert.Equal(t, CheckStateChecked, result.WorkingDirectory.IncludeAll())
	sel := result.Selection.(WorkingDirectorySelection)
	assert.Empty(t, sel.SelectedFileIDs)
	assert.Nil(t, sel.Diff)
}

func TestUpdateChangedFiles_FiltersSelection(t *testing.T) {
	diff := &Diff{}
	prev := stateWith(
		[]WorkingDirectoryFile{
			file("a.txt", StatusModified),
			file("b.txt", StatusModified),
			file("c.txt", StatusModified),
		},
		WorkingDirectorySelection{SelectedFileIDs: []string{"Modified+a.txt", "Modified+c.txt"}, Diff: diff},
	)

	t.Run("all still present", func(t *testing.T) {
		result := UpdateChangedFiles(prev, prev.WorkingDirectory.Files(), false)
		sel := result.Selection.(WorkingDirectorySelection)
		assert.Equal(t, []string{"Modified+a.txt", "Modified+c.txt"}, sel.SelectedFileIDs)
		assert.Nil(t, sel.Diff)
	})

	t.Run("shrinks to one", func(t *testing.T) {
		result := UpdateChangedFiles(prev, []WorkingDirectoryFile{
			file("a.txt", StatusModified),
			file("b.txt", StatusModified),
		}, false)
		sel := result.Selection.(WorkingDirectorySelection)
		assert.Equal(t, []string{"Modified+a.txt"}, sel.SelectedFileIDs)
		assert.Nil(t, sel.Diff, "diff must not survive a change in the selected set")
	})
}

func TestUpdateChangedFiles_StatusChangeIsNewFile(t *testing.T) {
	diff := &Diff{}
	prev := stateWith(
		[]WorkingDirectoryFile{file("a.txt", StatusNew)},
		WorkingDirectorySelection{SelectedFileIDs: []string{"New+a.txt"}, Diff: diff},
	)

	result := UpdateChangedFiles(prev, []WorkingDirectoryFile{file("a.txt", StatusModified)}, false)

	sel := result.Selection.(WorkingDirectorySelection)
	assert.Equal(t, []string{"Modified+a.txt"}, sel.SelectedFileIDs)
	assert.Nil(t, sel.Diff)
}

func TestUpdateChangedFiles_CarriesSelection(t *testing.T) {
	partial := NewDiffSelection(SelectionAll).WithSelectableLines([]int{1, 2, 3}).WithLineSelected(2, false)
	require.Equal(t, SelectionPartial, partial.Type())

	excluded := file("b.txt", StatusModified).WithIncludeAll(false)
	prev := stateWith(
		[]WorkingDirectoryFile{file("a.txt", StatusModified).WithSelection(partial), excluded},
		WorkingDirectorySelection{},
	)
	fresh := []WorkingDirectoryFile{
		file("a.txt", StatusModified),
		file("b.txt", StatusModified),
		file("c.txt", StatusNew),
	}

	t.Run("keep partial", func(t *testing.T) {
		result := UpdateChangedFiles(prev, fresh, false)
		files := result.WorkingDirectory.Files()
		assert.Equal(t, SelectionPartial, files[0].Selection.Type())
		assert.False(t, files[0].Selection.IsSelected(2))
		assert.Equal(t, SelectionNone, files[1].Selection.Type())
		assert.Equal(t, SelectionAll, files[2].Selection.Type())
		assert.Equal(t, CheckStateMixed, result.WorkingDirectory.IncludeAll())
	})

	t.Run("clear partial", func(t *testing.T) {
		result := UpdateChangedFiles(prev, fresh, true)
		files := result.WorkingDirectory.Files()
		assert.Equal(t, SelectionNone, files[0].Selection.Type())
		assert.Equal(t, SelectionNone, files[1].Selection.Type())
		assert.Equal(t, SelectionAll, files[2].Selection.Type())
	})
}

func TestUpdateChangedFiles_StashSelectionPassesThrough(t *testing.T) {
	stash := StashSelection{SelectedStashedFile: "notes.md"}
	prev := stateWith(nil, stash)

	result := UpdateChangedFiles(prev, []WorkingDirectoryFile{file("a.txt", StatusNew)}, false)

	assert.Equal(t, stash, result.Selection)
	assert.Equal(t, 1, result.WorkingDirectory.Len())
}

func TestUpdateChangedFiles_DoesNotMutatePrevious(t *testing.T) {
	prevFiles := []WorkingDirectoryFile{file("b.txt", StatusModified), file("a.txt", StatusModified)}
	prev := stateWith(prevFiles, WorkingDirectorySelection{SelectedFileIDs: []string{"Modified+b.txt"}})

	fresh := []WorkingDirectoryFile{file("b.txt", StatusModified), file("a.txt", StatusModified)}
	_ = UpdateChangedFiles(prev, fresh, false)

	assert.Equal(t, []string{"Modified+b.txt", "Modified+a.txt"}, ids(prev.WorkingDirectory.Files()))
	assert.Equal(t, []string{"Modified+b.txt", "Modified+a.txt"}, ids(fresh))
	assert.Equal(t, []string{"Modified+b.txt"}, prev.Selection.(WorkingDirectorySelection).SelectedFileIDs)
}

func TestIncludeAll(t *testing.T) {
	tests := []struct {
		name  string
		files []WorkingDirectoryFile
		want  CheckState
	}{
		{"empty", nil, CheckStateChecked},
		{"all included", []WorkingDirectoryFile{file("a", StatusNew), file("b", StatusNew)}, CheckStateChecked},
		{"none included", []WorkingDirectoryFile{
			file("a", StatusNew).WithIncludeAll(false),
			file("b", StatusNew).WithIncludeAll(false),
		}, CheckStateUnchecked},
		{"some included", []WorkingDirectoryFile{
			file("a", StatusNew),
			file("b", StatusNew).WithIncludeAll(false),
		}, CheckStateMixed},
		{"partial", []WorkingDirectoryFile{
			file("a", StatusNew).WithSelection(NewDiffSelectionWithLines(SelectionAll, []int{4})),
		}, CheckStateMixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewWorkingDirectory(tt.files).IncludeAll())
		})
	}
}

func TestSelectWorkingDirectoryFiles(t *testing.T) {
	a, b := file("a.txt", StatusModified), file("b.txt", StatusNew)
	diff := &Diff{}

	t.Run("from stash", func(t *testing.T) {
		s := stateWith([]WorkingDirectoryFile{a, b}, StashSelection{})
		sel := SelectWorkingDirectoryFiles(s, nil).(WorkingDirectorySelection)
		assert.Equal(t, []string{a.ID()}, sel.SelectedFileIDs)
	})

	t.Run("explicit files", func(t *testing.T) {
		s := stateWith([]WorkingDirectoryFile{a, b}, WorkingDirectorySelection{SelectedFileIDs: []string{a.ID()}, Diff: diff})
		sel := SelectWorkingDirectoryFiles(s, []WorkingDirectoryFile{a, b}).(WorkingDirectorySelection)
		assert.Equal(t, []string{a.ID(), b.ID()}, sel.SelectedFileIDs)
		assert.Nil(t, sel.Diff)
	})

	t.Run("same file keeps diff", func(t *testing.T) {
		s := stateWith([]WorkingDirectoryFile{a, b}, WorkingDirectorySelection{SelectedFileIDs: []string{a.ID()}, Diff: diff})
		sel := SelectWorkingDirectoryFiles(s, []WorkingDirectoryFile{a}).(WorkingDirectorySelection)
		assert.Same(t, diff, sel.Diff)
	})

	t.Run("unknown files fall back", func(t *testing.T) {
		s := stateWith([]WorkingDirectoryFile{a, b}, WorkingDirectorySelection{SelectedFileIDs: []string{b.ID()}})
		sel := SelectWorkingDirectoryFiles(s, []WorkingDirectoryFile{file("x", StatusNew)}).(WorkingDirectorySelection)
		assert.Equal(t, []string{b.ID()}, sel.SelectedFileIDs)
	})
}

func TestWorkingDirectoryFile_ID(t *testing.T) {
	assert.Equal(t, "Modified+a.txt", file("a.txt", StatusModified).ID())
	assert.Equal(t, "Conflicted+dir/b.go", file("dir/b.go", StatusConflicted).ID())
}

func TestParseFileStatus(t *testing.T) {
	for _, s := range []FileStatus{StatusNew, StatusModified, StatusDeleted, StatusRenamed, StatusConflicted, StatusResolved, StatusCopied} {
		got, err := ParseFileStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseFileStatus("modified")
	require.NoError(t, err)
	assert.Equal(t, StatusModified, got)

	_, err = ParseFileStatus("untracked")
	assert.Error(t, err)
}
