package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want Classification
	}{
		{
			name: "standalone with nil frequency",
			task: Task{ID: 1},
			want: Classification{Kind: KindStandalone},
		},
		{
			name: "standalone with zero frequency",
			task: Task{ID: 1, FrequencyDays: IntPtr(0)},
			want: Classification{Kind: KindStandalone},
		},
		{
			name: "unexcepted root",
			task: Task{ID: 1, FrequencyDays: IntPtr(7)},
			want: Classification{Kind: KindRoot, FrequencyDays: 7, RootID: 1},
		},
		{
			name: "root with exceptions",
			task: Task{ID: 1, FrequencyDays: IntPtr(7), LinkID: Int64Ptr(1)},
			want: Classification{Kind: KindRoot, FrequencyDays: 7, HasExceptions: true, RootID: 1},
		},
		{
			name: "bounded series root",
			task: Task{ID: 4, FrequencyDays: IntPtr(0), LinkID: Int64Ptr(4)},
			want: Classification{Kind: KindSeriesRoot, RootID: 4},
		},
		{
			name: "exception or series child",
			task: Task{ID: 9, FrequencyDays: IntPtr(0), LinkID: Int64Ptr(4)},
			want: Classification{Kind: KindLinked, RootID: 4},
		},
		{
			name: "negative frequency",
			task: Task{ID: 1, FrequencyDays: IntPtr(-1)},
			want: Classification{Kind: KindInvalid},
		},
		{
			name: "recurring row pointing at another row",
			task: Task{ID: 2, FrequencyDays: IntPtr(3), LinkID: Int64Ptr(1)},
			want: Classification{Kind: KindInvalid},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.task))
		})
	}
}

func TestOccursOn(t *testing.T) {
	root := Task{ID: 1, Date: MustParseDate("2024-01-01"), FrequencyDays: IntPtr(7)}

	assert.False(t, root.OccursOn(MustParseDate("2024-01-01")), "own date is covered by the row")
	assert.False(t, root.OccursOn(MustParseDate("2023-12-25")), "before creation")
	assert.False(t, root.OccursOn(MustParseDate("2024-01-05")))
	assert.True(t, root.OccursOn(MustParseDate("2024-01-08")))
	assert.True(t, root.OccursOn(MustParseDate("2024-01-15")))

	standalone := Task{ID: 2, Date: MustParseDate("2024-01-01")}
	assert.False(t, standalone.OccursOn(MustParseDate("2024-01-08")))
}

func TestValidateMinutes(t *testing.T) {
	assert.NoError(t, ValidateMinutes(0, 1439))
	assert.NoError(t, ValidateMinutes(540, 600))
	assert.ErrorIs(t, ValidateMinutes(600, 600), ErrInvalidRange)
	assert.ErrorIs(t, ValidateMinutes(600, 540), ErrInvalidRange)
	assert.ErrorIs(t, ValidateMinutes(-1, 10), ErrInvalidRange)
	assert.ErrorIs(t, ValidateMinutes(10, 1440), ErrInvalidRange)
}

func TestValidateFrequency(t *testing.T) {
	assert.NoError(t, ValidateFrequency(nil))
	assert.NoError(t, ValidateFrequency(IntPtr(0)))
	assert.ErrorIs(t, ValidateFrequency(IntPtr(-3)), ErrInvalidFrequency)
}

func TestOccurrenceTargetID(t *testing.T) {
	root := Task{ID: 5, Date: MustParseDate("2024-01-01"), FrequencyDays: IntPtr(1)}
	virtual := VirtualOccurrence(root, MustParseDate("2024-01-02"))
	assert.Nil(t, virtual.ID)
	assert.Equal(t, int64(5), virtual.TargetID())
	assert.False(t, virtual.Done)

	row := OccurrenceFromTask(Task{ID: 8, Done: true})
	assert.Equal(t, int64(8), row.TargetID())
	assert.True(t, row.Done)
}
