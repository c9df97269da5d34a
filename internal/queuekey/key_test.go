package queuekey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromURL_StripsPrefixAndCanonicalizes(t *testing.T) {
	assert.Equal(t, "BV1xx41147", FromURL("bilibili://video/BV1xx41147"))
	assert.Equal(t, "BV1xx-page-2", FromURL("bilibili://video/BV1xx?page=2"))
}

func TestFromURL_Idempotent(t *testing.T) {
	for _, url := range []string{
		"bilibili://video/BV1xx41147",
		"bilibili://video/BV1xx?page=2",
		"BV1xx-page-2",
	} {
		once := FromURL(url)
		twice := FromURL(once)
		assert.Equal(t, once, twice, "key(key(x)) must equal key(x) for %q", url)
	}
}

func TestFromURL_DistinctInputsDistinctKeys(t *testing.T) {
	a := FromURL("bilibili://video/BV1aaa?page=1")
	b := FromURL("bilibili://video/BV1bbb?page=1")
	assert.NotEqual(t, a, b)
}

func TestSplit_RecoversBvidAndPage(t *testing.T) {
	key := FromURL("bilibili://video/BV1xx41147?page=2")
	bvid, page, hasPage := Split(key)
	assert.Equal(t, "BV1xx41147", bvid)
	assert.True(t, hasPage)
	assert.Equal(t, "2", page)
}

func TestSplit_NoPage(t *testing.T) {
	key := FromURL("bilibili://video/BV1xx41147")
	bvid, _, hasPage := Split(key)
	assert.Equal(t, "BV1xx41147", bvid)
	assert.False(t, hasPage)
}
