package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/eigerco/slashing/internal/slashing"
	"github.com/eigerco/slashing/pkg/serialization"
	"github.com/eigerco/slashing/pkg/serialization/codec"
)

type pendingView struct {
	Kind      string   `json:"kind"`
	Session   uint32   `json:"session"`
	Candidate string   `json:"candidate"`
	Losers    []uint32 `json:"losers"`
	Winners   []string `json:"winners"`
}

func newPendingView(p slashing.PendingSlashes) pendingView {
	v := pendingView{
		Kind:      p.Kind.String(),
		Session:   uint32(p.TimeSlot.SessionIndex),
		Candidate: p.TimeSlot.CandidateHash.String(),
		Losers:    make([]uint32, len(p.Losers)),
		Winners:   make([]string, len(p.Winners)),
	}
	for i, l := range p.Losers {
		v.Losers[i] = uint32(l)
	}
	for i, w := range p.Winners {
		v.Winners[i] = w.String()
	}
	return v
}

func pendingCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	r, closeStore, err := openRuntime(cfg, c.String("dir"))
	if err != nil {
		return err
	}
	defer closeStore() //nolint:errcheck

	pending, err := r.Pending()
	if err != nil {
		return err
	}
	views := make([]pendingView, len(pending))
	for i, p := range pending {
		views[i] = newPendingView(p)
	}

	out, err := serialization.NewSerializer(&codec.JSONCodec{Indent: "  "}).Encode(views)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
