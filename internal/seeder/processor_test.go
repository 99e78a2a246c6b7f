package seeder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanContent(t *testing.T) {
	cp := NewContentProcessor()

	in := "  <b>Murabaha</b>   is a\tsale.\n\n\n\nIt   is deferred.  \n"
	assert.Equal(t, "Murabaha is a sale.\n\nIt is deferred.", cp.CleanContent(in))
}

func TestParseStandardHeading(t *testing.T) {
	cp := NewContentProcessor()

	tests := []struct {
		in, number, name string
		ok               bool
	}{
		{"Shari'ah Standard No. (8): Murabaha", "8", "Murabaha", true},
		{"FAS 28 - Murabaha and Other Deferred Payment Sales", "28", "Murabaha and Other Deferred Payment Sales", true},
		{"Standard 12: Sharikah (Musharakah)", "12", "Sharikah (Musharakah)", true},
		{"AAOIFI Shari'ah Standards", "", "AAOIFI Shari'ah Standards", false},
	}
	for _, tt := range tests {
		number, name, ok := cp.ParseStandardHeading(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.number, number, tt.in)
		assert.Equal(t, tt.name, name, tt.in)
	}
}

func TestParseSectionHeading(t *testing.T) {
	cp := NewContentProcessor()

	tests := []struct {
		in, number, title string
	}{
		{"2/1/3 Promise to purchase", "2/1/3", "Promise to purchase"},
		{"5. Scope of the Standard", "5", "Scope of the Standard"},
		{"Section 4.2 - Rules", "4.2", "Rules"},
		{"Statement of the Standard", "", "Statement of the Standard"},
	}
	for _, tt := range tests {
		number, title := cp.ParseSectionHeading(tt.in)
		assert.Equal(t, tt.number, number, tt.in)
		assert.Equal(t, tt.title, title, tt.in)
	}
}

func TestSplitIntoChunks(t *testing.T) {
	cp := NewContentProcessor()

	assert.Nil(t, cp.SplitIntoChunks("   ", 100))
	assert.Equal(t, []string{"short"}, cp.SplitIntoChunks("short", 100))

	paragraphs := strings.Repeat("a", 40) + "\n\n" + strings.Repeat("b", 40) + "\n\n" + strings.Repeat("c", 40)
	chunks := cp.SplitIntoChunks(paragraphs, 90)
	assert.Equal(t, []string{strings.Repeat("a", 40) + "\n\n" + strings.Repeat("b", 40), strings.Repeat("c", 40)}, chunks)
}

func TestSplitIntoChunks_LongParagraphBySentence(t *testing.T) {
	cp := NewContentProcessor()

	text := "The seller owns the asset. The buyer pays later! Is a rebate allowed? Only if not stipulated."
	chunks := cp.SplitIntoChunks(text, 50)

	assert.Equal(t, []string{
		"The seller owns the asset. The buyer pays later!",
		"Is a rebate allowed? Only if not stipulated.",
	}, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50)
	}
}

func TestCountWords(t *testing.T) {
	cp := NewContentProcessor()
	assert.Equal(t, 0, cp.CountWords(""))
	assert.Equal(t, 5, cp.CountWords("Murabaha is a cost-plus sale."), "single letters are not counted")
}
