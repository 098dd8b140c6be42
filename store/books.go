package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/rs/zerolog/log"
)

const (
	prefixTrade    = "trade/"
	prefixYearly   = "capital/yearly/"
	prefixOverride = "capital/override/"
	prefixChange   = "capital/change/"
	keyCurrency    = "journal/currency"
)

// Books reads and writes a journal as individual records of a KV.
type Books struct {
	kv KV
}

func NewBooks(kv KV) *Books { return &Books{kv: kv} }

func tradeKey(id string) string       { return prefixTrade + id }
func yearlyKey(year int) string       { return prefixYearly + strconv.Itoa(year) }
func overrideKey(m date.Month) string { return prefixOverride + m.String() }
func changeKey(id string) string      { return prefixChange + id }

func (b *Books) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot encode %q: %w", key, err)
	}
	return b.kv.Put(ctx, key, data)
}

// Load reads every record into a new journal. Trades are validated against
// limits and excess exits handled according to policy, like DecodeJournal.
func (b *Books) Load(ctx context.Context, limits tradebook.Limits, policy tradebook.ExcessExitPolicy) (*tradebook.Journal, error) {
	cur, err := b.kv.Get(ctx, keyCurrency)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	j := tradebook.NewJournal(string(cur))

	err = b.each(ctx, prefixTrade, func(key string, data []byte) error {
		var t tradebook.Trade
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		if policy == tradebook.Clamp {
			t = tradebook.ClampExits(t)
		}
		_, err := j.PutTrade(t, limits)
		return err
	})
	if err != nil {
		return nil, err
	}

	capital := j.Capital()
	err = b.each(ctx, prefixYearly, func(key string, data []byte) error {
		var y tradebook.YearlyCapital
		if err := json.Unmarshal(data, &y); err != nil {
			return err
		}
		return capital.SetYearly(y)
	})
	if err != nil {
		return nil, err
	}
	err = b.each(ctx, prefixOverride, func(key string, data []byte) error {
		var o tradebook.MonthlyOverride
		if err := json.Unmarshal(data, &o); err != nil {
			return err
		}
		return capital.SetOverride(o)
	})
	if err != nil {
		return nil, err
	}
	err = b.each(ctx, prefixChange, func(key string, data []byte) error {
		var c tradebook.CapitalChange
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		_, err := capital.AddChange(c)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Int("trades", len(j.Trades())).Str("currency", j.Currency()).Msg("journal loaded")
	return j, nil
}

func (b *Books) each(ctx context.Context, prefix string, f func(key string, data []byte) error) error {
	keys, err := b.kv.Keys(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		data, err := b.kv.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("cannot read %q: %w", key, err)
		}
		if err := f(key, data); err != nil {
			return fmt.Errorf("invalid record %q: %w", key, err)
		}
	}
	return nil
}

// Save writes every record of j and removes the records j no longer has.
func (b *Books) Save(ctx context.Context, j *tradebook.Journal) error {
	if err := b.kv.Put(ctx, keyCurrency, []byte(j.Currency())); err != nil {
		return err
	}
	keep := make(map[string]bool)
	for _, t := range j.Trades() {
		keep[tradeKey(t.ID)] = true
		if err := b.put(ctx, tradeKey(t.ID), t); err != nil {
			return err
		}
	}
	capital := j.Capital()
	for _, y := range capital.Yearly() {
		keep[yearlyKey(y.Year)] = true
		if err := b.put(ctx, yearlyKey(y.Year), y); err != nil {
			return err
		}
	}
	for _, o := range capital.Overrides() {
		keep[overrideKey(o.Month)] = true
		if err := b.put(ctx, overrideKey(o.Month), o); err != nil {
			return err
		}
	}
	for _, c := range capital.Changes() {
		keep[changeKey(c.ID)] = true
		if err := b.put(ctx, changeKey(c.ID), c); err != nil {
			return err
		}
	}

	removed := 0
	for _, prefix := range []string{prefixTrade, prefixYearly, prefixOverride, prefixChange} {
		keys, err := b.kv.Keys(ctx, prefix)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if keep[key] {
				continue
			}
			if err := b.kv.Delete(ctx, key); err != nil {
				return err
			}
			removed++
		}
	}
	log.Debug().Int("records", len(keep)).Int("removed", removed).Msg("journal saved")
	return nil
}

// PutTrade writes a single trade. The trade must have an ID.
func (b *Books) PutTrade(ctx context.Context, t tradebook.Trade) error {
	if t.ID == "" {
		return errors.New("cannot store a trade without ID")
	}
	return b.put(ctx, tradeKey(t.ID), t)
}

func (b *Books) DeleteTrade(ctx context.Context, id string) error {
	return b.kv.Delete(ctx, tradeKey(id))
}

func (b *Books) PutYearly(ctx context.Context, y tradebook.YearlyCapital) error {
	return b.put(ctx, yearlyKey(y.Year), y)
}

func (b *Books) PutOverride(ctx context.Context, o tradebook.MonthlyOverride) error {
	return b.put(ctx, overrideKey(o.Month), o)
}

// PutChange writes a single capital change. The change must have an ID.
func (b *Books) PutChange(ctx context.Context, c tradebook.CapitalChange) error {
	if c.ID == "" {
		return errors.New("cannot store a capital change without ID")
	}
	return b.put(ctx, changeKey(c.ID), c)
}
