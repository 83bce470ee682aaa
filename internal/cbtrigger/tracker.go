package cbtrigger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"SqueezeWatch/internal/domain/models"
)

// ErrInvalidInput fails a single transition and leaves prior state untouched.
var ErrInvalidInput = errors.New("cbtrigger: invalid input")

// Params are the bond-specific trigger parameters.
type Params struct {
	TriggerRatio float64 // close/conversion ratio that counts as above trigger, e.g. 1.30
	TriggerDays  int     // consecutive days required for forced redemption, e.g. 30
}

// DefaultParams is the common 130% / 30-day clause.
func DefaultParams() Params { return Params{TriggerRatio: 1.30, TriggerDays: 30} }

func (p Params) validate() error {
	if p.TriggerRatio <= 0 {
		return fmt.Errorf("%w: trigger ratio %.4f", ErrInvalidInput, p.TriggerRatio)
	}
	if p.TriggerDays <= 0 {
		return fmt.Errorf("%w: trigger days %d", ErrInvalidInput, p.TriggerDays)
	}
	return nil
}

// Input is one trade date's evaluation input for a bond.
type Input struct {
	CBTicker         string
	UnderlyingTicker string
	TradeDate        string
	ClosePrice       float64
	ConversionPrice  float64
	Outstanding      float64
}

// State is the carried-over state from the bond's last evaluated date.
// A zero State is the correct starting point for a newly tracked bond.
type State struct {
	ConsecutiveDays int
	Outstanding     float64
	LastTradeDate   string
}

// Evaluate runs one transition for one bond and date. It is pure: the same
// inputs always produce the same tracking row, so re-running a date is safe
// and concurrent evaluation of distinct bonds needs no coordination.
func Evaluate(in Input, prev State, p Params) (*models.CBTracking, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if in.ConversionPrice <= 0 {
		return nil, fmt.Errorf("%w: conversion price %.4f for %s", ErrInvalidInput, in.ConversionPrice, in.CBTicker)
	}
	if in.ClosePrice <= 0 {
		return nil, fmt.Errorf("%w: close price %.4f for %s", ErrInvalidInput, in.ClosePrice, in.CBTicker)
	}
	if in.Outstanding < 0 {
		return nil, fmt.Errorf("%w: outstanding balance %.4f for %s", ErrInvalidInput, in.Outstanding, in.CBTicker)
	}

	ratio := in.ClosePrice / in.ConversionPrice
	above := ratio >= p.TriggerRatio

	consecutive := 0
	if above {
		consecutive = prev.ConsecutiveDays + 1
	}

	progress := math.Min(100, float64(consecutive)/float64(p.TriggerDays)*100)
	remaining := p.TriggerDays - consecutive
	if remaining < 0 {
		remaining = 0
	}

	var balanceChangePct float64
	if prev.Outstanding > 0 {
		balanceChangePct = (in.Outstanding - prev.Outstanding) / prev.Outstanding * 100
	}

	level := Level(consecutive, p.TriggerDays)

	t := &models.CBTracking{
		CBTicker:         in.CBTicker,
		UnderlyingTicker: in.UnderlyingTicker,
		TradeDate:        in.TradeDate,
		ClosePrice:       in.ClosePrice,
		ConversionPrice:  in.ConversionPrice,
		PriceRatio:       round2(ratio * 100),
		AboveTrigger:     above,
		ConsecutiveDays:  consecutive,
		DaysRemaining:    remaining,
		TriggerProgress:  round2(progress),
		Outstanding:      in.Outstanding,
		BalanceChangePct: round2(balanceChangePct),
		WarningLevel:     level,
		EvaluatedAt:      time.Now(),
	}
	t.Comment = comment(t, remaining)
	return t, nil
}

// Level classifies a streak against the required days: CRITICAL at the full
// requirement, WARNING from two thirds, CAUTION from one third, SAFE below.
// Any non-trigger day resets the streak, so levels never decay gradually.
func Level(consecutive, triggerDays int) models.WarningLevel {
	d := float64(triggerDays)
	switch {
	case consecutive >= triggerDays:
		return models.WarnCritical
	case float64(consecutive) >= d*2/3:
		return models.WarnWarning
	case float64(consecutive) >= d/3:
		return models.WarnCaution
	default:
		return models.WarnSafe
	}
}

func comment(t *models.CBTracking, remaining int) string {
	switch t.WarningLevel {
	case models.WarnCritical:
		return fmt.Sprintf("redemption trigger met: %d consecutive days above threshold, %.2f outstanding may face conversion pressure", t.ConsecutiveDays, t.Outstanding)
	case models.WarnWarning:
		return fmt.Sprintf("high alert: %d consecutive days, %d more to trigger forced redemption, %.2f outstanding", t.ConsecutiveDays, remaining, t.Outstanding)
	case models.WarnCaution:
		return fmt.Sprintf("watch closely: %d consecutive days above threshold, price/conversion = %.1f%%", t.ConsecutiveDays, t.PriceRatio)
	default:
		return fmt.Sprintf("safe range: price/conversion = %.1f%%, no near-term redemption risk", t.PriceRatio)
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
