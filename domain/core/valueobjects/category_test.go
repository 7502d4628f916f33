package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_Label(t *testing.T) {
	tests := []struct {
		category Category
		want     string
	}{
		{CategoryText, "None"},
		{CategoryImage, "Image"},
		{CategoryDocumentImage, "Image Document"},
		{CategoryDocumentPdf, "PDF Document"},
		{CategoryDocumentAudio, "Audio Document"},
		{CategoryDocumentVideo, "Video Document"},
		{CategoryDocumentMisc, "Document"},
		{CategoryVideo, "Video"},
		{CategoryAudio, "Audio"},
		{CategoryVoice, "Voice Message"},
		{CategoryCircularVideo, "Video Note"},
		{Category("bogus"), "None"},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.Label())
		})
	}
}

func TestCategory_FolderClassCoversAttachments(t *testing.T) {
	for _, c := range AllCategories() {
		if c.IsAttachment() {
			assert.NotEmpty(t, c.FolderClass(), "attachment category %s must map to a folder", c)
			assert.NotEmpty(t, c.FolderClass().FolderName())
		} else {
			assert.Empty(t, c.FolderClass())
		}
	}
}

func TestFolderClass_FolderNames(t *testing.T) {
	names := make([]string, 0, len(AllFolderClasses()))
	for _, f := range AllFolderClasses() {
		names = append(names, f.FolderName())
	}

	assert.Equal(t, []string{"Images", "Video", "Audio", "PDF", "Tickets"}, names)
}

func TestCategory_IsDocument(t *testing.T) {
	assert.True(t, CategoryDocumentPdf.IsDocument())
	assert.True(t, CategoryDocumentMisc.IsDocument())
	assert.False(t, CategoryImage.IsDocument())
	assert.False(t, CategoryText.IsDocument())
}

func TestUserID(t *testing.T) {
	id := NewUserIDFromTelegram(42)
	assert.Equal(t, "user_42", id.String())
	assert.Equal(t, int64(42), id.TelegramID())

	parsed, err := ParseUserID("user_42")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseUserID("")
	assert.Error(t, err)
	_, err = ParseUserID("42")
	assert.Error(t, err)
	_, err = ParseUserID("user_abc")
	assert.Error(t, err)
}
