package ad9959

import (
	"context"

	"ddscode-go/errcode"
	"ddscode-go/services/hal/internal/core"
	"ddscode-go/services/hal/internal/util"
	"ddscode-go/x/strx"
)

func init() { core.RegisterBuilder("ad9959", builder{}) }

// Params configures one DDS. Pins set to -1 are not wired.
type Params struct {
	Bus           string `json:"bus"`
	ResetPin      int    `json:"reset_pin"`
	UpdatePin     int    `json:"update_pin"`
	CSPin         int    `json:"cs_pin"`
	SClkPin       int    `json:"sclk_pin"`
	ReferenceHz   uint32 `json:"reference_hz"`
	Multiplier    uint8  `json:"multiplier"`
	CalibrationHz uint32 `json:"calibration_hz"`
	AutoCommit    bool   `json:"auto_commit"`
	Domain        string `json:"domain"`
	Name          string `json:"name"`
}

// DefaultParams leaves CS and SCLK unwired and the clock at driver defaults.
func DefaultParams() Params {
	return Params{Bus: "spi0", ResetPin: -1, UpdatePin: -1, CSPin: -1, SClkPin: -1, AutoCommit: true}
}

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, ok := in.Params.(Params)
	if !ok {
		p = DefaultParams()
		if in.Params != nil {
			if err := util.DecodeJSON(in.Params, &p); err != nil {
				return nil, errcode.InvalidParams
			}
		}
	}
	if p.ResetPin < 0 || p.UpdatePin < 0 || p.Bus == "" {
		return nil, errcode.InvalidParams
	}
	return &Device{
		id:     in.ID,
		params: p,
		reg:    in.Res.Reg,
		pub:    in.Res.Pub,
		addr: core.CapAddr{
			Domain: strx.Coalesce(p.Domain, "rf"),
			Kind:   kindDDS,
			Name:   strx.Coalesce(p.Name, in.ID),
		},
		autoCommit: p.AutoCommit,
	}, nil
}
