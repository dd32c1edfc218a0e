package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMD5(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", CalculateMD5(nil))
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", TextMD5("hello"))
}

func TestConvertArrayToJSON(t *testing.T) {
	assert.JSONEq(t, `[]`, string(ConvertArrayToJSON(nil)))
	assert.JSONEq(t, `["go","python"]`, string(ConvertArrayToJSON([]string{"go", "python"})))
}

func TestToJSON(t *testing.T) {
	b, err := ToJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	_, err = ToJSON(make(chan int))
	assert.Error(t, err)
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "cv.pdf", SafeFilename("../../etc/cv.pdf", "upload"))
	assert.Equal(t, "cv.docx", SafeFilename(`C:\Users\jane\cv.docx`, "upload"))
	assert.Equal(t, "upload", SafeFilename("", "upload"))
}
