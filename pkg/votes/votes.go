// Package votes records user votes on encyclopedia items and maintains
// per-item totals and per-day analytics.
package votes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/docstore"
	"github.com/eyesofazrael/azrael/pkg/models"
)

const dateLayout = "2006-01-02"

// Input is one vote. Value is +1, -1, or 0 to withdraw.
type Input struct {
	ItemID   string `json:"itemId"`
	ItemType string `json:"itemType"`
	UserID   string `json:"userId"`
	Value    int    `json:"value"`
}

// Tracker records votes and answers analytics queries.
type Tracker struct {
	store *docstore.Store
	now   func() time.Time
}

// New returns a Tracker over store.
func New(store *docstore.Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// SetClock overrides the time source.
func (t *Tracker) SetClock(now func() time.Time) { t.now = now }

// Vote records in and returns the item's updated total. The vote, the
// item total and the day's analytics are written in one transaction.
func (t *Tracker) Vote(ctx context.Context, in Input) (models.VoteTotal, error) {
	if in.ItemID == "" || in.ItemType == "" {
		return models.VoteTotal{}, apperr.InvalidArgument("itemId and itemType are required")
	}
	if in.UserID == "" {
		return models.VoteTotal{}, apperr.Unauthenticated("sign in to vote")
	}
	if in.Value < -1 || in.Value > 1 {
		return models.VoteTotal{}, apperr.InvalidArgument("value must be -1, 0 or 1")
	}

	now := t.now().UTC()
	itemKey := in.ItemType + "_" + in.ItemID
	voteID := itemKey + "_" + in.UserID
	dayID := now.Format(dateLayout) + "_" + in.ItemType

	var total models.VoteTotal
	err := t.store.RunTransaction(ctx, func(tx *docstore.Tx) error {
		var prev models.Vote
		if err := tx.Get(ctx, models.CollVotes, voteID, &prev); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		if err := getOrInit(ctx, tx, models.CollVoteTotals, itemKey, &total); err != nil {
			return err
		}
		total.ItemID, total.ItemType = in.ItemID, in.ItemType
		if prev.Value == in.Value {
			return nil
		}

		apply(&total, prev.Value, -1)
		apply(&total, in.Value, +1)
		total.Score = total.Upvotes - total.Downvotes
		if err := tx.Set(ctx, models.CollVoteTotals, itemKey, total); err != nil {
			return err
		}

		if in.Value == 0 {
			if err := tx.Delete(ctx, models.CollVotes, voteID); err != nil {
				return err
			}
		} else if err := tx.Set(ctx, models.CollVotes, voteID, models.Vote{
			ItemID:    in.ItemID,
			ItemType:  in.ItemType,
			UserID:    in.UserID,
			Value:     in.Value,
			UpdatedAt: models.Millis(now),
		}); err != nil {
			return err
		}

		var day models.DailyVoteStats
		if err := getOrInit(ctx, tx, models.CollVoteAnalytics, dayID, &day); err != nil {
			return err
		}
		day.Date, day.ItemType = now.Format(dateLayout), in.ItemType
		if day.Items == nil {
			day.Items = make(map[string]int)
		}
		switch in.Value {
		case 1:
			day.Upvotes++
		case -1:
			day.Downvotes++
		}
		day.Total++
		day.Items[in.ItemID] += in.Value - prev.Value
		return tx.Set(ctx, models.CollVoteAnalytics, dayID, day)
	})
	if err != nil {
		return models.VoteTotal{}, fmt.Errorf("record vote: %w", err)
	}
	return total, nil
}

// ItemScore returns the running total for an item. Items without votes
// have a zero total.
func (t *Tracker) ItemScore(ctx context.Context, itemType, itemID string) (models.VoteTotal, error) {
	total := models.VoteTotal{ItemID: itemID, ItemType: itemType}
	err := t.store.Get(ctx, models.CollVoteTotals, itemType+"_"+itemID, &total)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return models.VoteTotal{}, err
	}
	return total, nil
}

// DailyStats returns the analytics documents for itemType between from
// and to inclusive, oldest first.
func (t *Tracker) DailyStats(ctx context.Context, itemType string, from, to time.Time) ([]models.DailyVoteStats, error) {
	docs, err := t.store.Query(ctx, models.CollVoteAnalytics, docstore.Query{
		Where: []docstore.Filter{
			docstore.Where("itemType", "==", itemType),
			docstore.Where("date", ">=", from.UTC().Format(dateLayout)),
			docstore.Where("date", "<=", to.UTC().Format(dateLayout)),
		},
		OrderBy: "date",
	})
	if err != nil {
		return nil, fmt.Errorf("daily vote stats: %w", err)
	}
	out := make([]models.DailyVoteStats, 0, len(docs))
	for _, d := range docs {
		var s models.DailyVoteStats
		if err := d.Decode(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// TopItems returns the n highest scoring items of itemType. With a date
// (YYYY-MM-DD) it ranks by net score gained that day; with an empty date
// it ranks by all-time score.
func (t *Tracker) TopItems(ctx context.Context, itemType, date string, n int) ([]models.ItemScore, error) {
	if n <= 0 {
		n = 10
	}
	if date == "" {
		return t.topAllTime(ctx, itemType, n)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, apperr.InvalidArgument("date must be YYYY-MM-DD")
	}

	var day models.DailyVoteStats
	err := t.store.Get(ctx, models.CollVoteAnalytics, date+"_"+itemType, &day)
	if errors.Is(err, docstore.ErrNotFound) {
		return []models.ItemScore{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]models.ItemScore, 0, len(day.Items))
	for id, score := range day.Items {
		out = append(out, models.ItemScore{ItemID: id, Score: score})
	}
	sortScores(out)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (t *Tracker) topAllTime(ctx context.Context, itemType string, n int) ([]models.ItemScore, error) {
	docs, err := t.store.Query(ctx, models.CollVoteTotals, docstore.Query{
		Where: []docstore.Filter{docstore.Where("itemType", "==", itemType)},
	})
	if err != nil {
		return nil, fmt.Errorf("top items: %w", err)
	}
	out := make([]models.ItemScore, 0, len(docs))
	for _, d := range docs {
		var total models.VoteTotal
		if err := d.Decode(&total); err != nil {
			return nil, err
		}
		out = append(out, models.ItemScore{ItemID: total.ItemID, Score: total.Score})
	}
	sortScores(out)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func sortScores(s []models.ItemScore) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].ItemID < s[j].ItemID
	})
}

func apply(total *models.VoteTotal, value, sign int) {
	switch value {
	case 1:
		total.Upvotes += sign
	case -1:
		total.Downvotes += sign
	}
}

func getOrInit(ctx context.Context, tx *docstore.Tx, collection, id string, dst any) error {
	err := tx.Get(ctx, collection, id, dst)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	return err
}
