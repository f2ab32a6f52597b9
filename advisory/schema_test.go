package advisory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outfitRequest(anchorID string, candidateIDs ...string) OutfitRequest {
	req := OutfitRequest{AnchorID: anchorID}
	for _, id := range candidateIDs {
		req.Candidates = append(req.Candidates, GarmentSummary{ID: id, Category: "tops"})
	}
	return req
}

func TestParseOutfitResultValid(t *testing.T) {
	raw := []byte(`{
		"outer_id": "1",
		"top_ids": ["2", "3"],
		"bottoms_id": "4",
		"shoes_id": "5",
		"reason": "warm layers for a windy day"
	}`)

	res, err := ParseOutfitResult(raw, outfitRequest("", "1", "2", "3", "4", "5"))
	require.NoError(t, err)
	assert.Equal(t, "1", res.OuterID)
	assert.Equal(t, []string{"2", "3"}, res.TopIDs)
	assert.Equal(t, "4", res.BottomsID)
	assert.Equal(t, "5", res.ShoesID)
	assert.Equal(t, "warm layers for a windy day", res.Reason)
}

func TestParseOutfitResultPartialSlots(t *testing.T) {
	// All slots are optional as long as at least one item is chosen.
	raw := []byte(`{"top_ids": ["2"], "reason": "a single tee is enough"}`)

	res, err := ParseOutfitResult(raw, outfitRequest("", "2"))
	require.NoError(t, err)
	assert.Empty(t, res.OuterID)
	assert.Equal(t, []string{"2"}, res.TopIDs)
}

func TestParseOutfitResultRejectsInvalidJSON(t *testing.T) {
	_, err := ParseOutfitResult([]byte(`not json at all`), outfitRequest("", "1"))
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestParseOutfitResultRejectsUnknownItem(t *testing.T) {
	raw := []byte(`{"top_ids": ["99"], "reason": "made up"}`)

	_, err := ParseOutfitResult(raw, outfitRequest("", "1", "2"))
	assert.ErrorContains(t, err, `unknown item "99"`)
}

func TestParseOutfitResultRejectsEmptySelection(t *testing.T) {
	raw := []byte(`{"reason": "nothing picked"}`)

	_, err := ParseOutfitResult(raw, outfitRequest("", "1"))
	assert.ErrorContains(t, err, "selected no items")
}

func TestParseOutfitResultRejectsMissingReason(t *testing.T) {
	raw := []byte(`{"top_ids": ["1"]}`)

	_, err := ParseOutfitResult(raw, outfitRequest("", "1"))
	assert.ErrorContains(t, err, "missing a reason")
}

func TestParseOutfitResultRejectsDroppedAnchor(t *testing.T) {
	raw := []byte(`{"top_ids": ["2"], "reason": "ignored the anchor"}`)

	_, err := ParseOutfitResult(raw, outfitRequest("1", "1", "2"))
	assert.ErrorContains(t, err, `dropped the anchor item "1"`)
}

func TestParseOutfitResultKeepsAnchor(t *testing.T) {
	raw := []byte(`{"outer_id": "1", "top_ids": ["2"], "reason": "built around the anchor"}`)

	res, err := ParseOutfitResult(raw, outfitRequest("1", "1", "2"))
	require.NoError(t, err)
	assert.Equal(t, "1", res.OuterID)
}
