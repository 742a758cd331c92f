// Package hue pushes light commands to a Hue bridge.
package hue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/amimof/huego"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/huerizon/skysyncd/internal/color"
	"github.com/huerizon/skysyncd/internal/engine"
)

// Applier delivers an applied command to a light.
type Applier interface {
	Apply(ctx context.Context, cmd engine.Command) error
}

// BridgeApplier sends commands to a Hue bridge through huego, with a
// token-bucket budget on outbound requests and a per-request timeout.
type BridgeApplier struct {
	bridge  *huego.Bridge
	limiter *rate.Limiter
	timeout time.Duration
}

// NewBridgeApplier creates an applier for the bridge at the given address.
func NewBridgeApplier(address, token string, rateLimitRPS float64, timeout time.Duration) *BridgeApplier {
	bridge := huego.New(address, token)

	burst := int(rateLimitRPS)
	if burst < 1 {
		burst = 1
	}

	return &BridgeApplier{
		bridge:  bridge,
		limiter: rate.NewLimiter(rate.Limit(rateLimitRPS), burst),
		timeout: timeout,
	}
}

// requestCtx bounds one bridge request with the configured timeout, so a
// stalled bridge cannot wedge the pipeline.
func (a *BridgeApplier) requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// Connect probes the bridge so a bad address or token fails at startup.
func (a *BridgeApplier) Connect(ctx context.Context) error {
	reqCtx, cancel := a.requestCtx(ctx)
	defer cancel()

	if _, err := a.bridge.GetConfigContext(reqCtx); err != nil {
		return fmt.Errorf("hue bridge probe: %w", err)
	}
	log.Info().Str("bridge", a.bridge.Host).Msg("Connected to Hue bridge")
	return nil
}

// Apply pushes one command to its target light.
func (a *BridgeApplier) Apply(ctx context.Context, cmd engine.Command) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	id, err := strconv.Atoi(cmd.Target)
	if err != nil {
		return fmt.Errorf("invalid light id %q: %w", cmd.Target, err)
	}

	state, err := stateFor(cmd)
	if err != nil {
		return err
	}

	reqCtx, cancel := a.requestCtx(ctx)
	defer cancel()

	if _, err := a.bridge.SetLightStateContext(reqCtx, id, state); err != nil {
		return fmt.Errorf("set light %d state: %w", id, err)
	}

	log.Debug().
		Str("target", cmd.Target).
		Str("representation", string(cmd.Representation)).
		Floats64("values", cmd.Values).
		Msg("Command applied")
	return nil
}

// stateFor maps a command to the bridge's native state fields.
func stateFor(cmd engine.Command) (huego.State, error) {
	state := huego.State{On: true, Bri: bridgeBrightness(cmd.Brightness)}

	switch cmd.Representation {
	case color.FormatXY:
		if len(cmd.Values) != 2 {
			return state, fmt.Errorf("xy command needs 2 values, got %d", len(cmd.Values))
		}
		state.Xy = []float32{float32(cmd.Values[0]), float32(cmd.Values[1])}

	case color.FormatHS:
		if len(cmd.Values) != 2 {
			return state, fmt.Errorf("hs command needs 2 values, got %d", len(cmd.Values))
		}
		state.Hue = uint16(cmd.Values[0] / 360 * 65535)
		state.Sat = uint8(cmd.Values[1] / 100 * 254)

	case color.FormatRGB:
		if len(cmd.Values) != 3 {
			return state, fmt.Errorf("rgb command needs 3 values, got %d", len(cmd.Values))
		}
		// The bridge has no native rgb channel; carry rgb as xy.
		x, y := color.RGBToXY(cmd.Values[0]/255, cmd.Values[1]/255, cmd.Values[2]/255)
		state.Xy = []float32{float32(x), float32(y)}

	case color.FormatColorTemp:
		if len(cmd.Values) != 1 {
			return state, fmt.Errorf("color_temp command needs 1 value, got %d", len(cmd.Values))
		}
		state.Ct = bridgeMireds(cmd.Values[0])

	default:
		return state, fmt.Errorf("unsupported representation %q", cmd.Representation)
	}

	return state, nil
}

// bridgeBrightness maps [0,1] to the bridge's 1-254 range.
func bridgeBrightness(b float64) uint8 {
	v := int(b*253) + 1
	if v < 1 {
		v = 1
	}
	if v > 254 {
		v = 254
	}
	return uint8(v)
}

// bridgeMireds converts kelvin to the bridge's mired range 153-500.
func bridgeMireds(kelvin float64) uint16 {
	if kelvin <= 0 {
		return 500
	}
	ct := 1e6 / kelvin
	if ct < 153 {
		ct = 153
	}
	if ct > 500 {
		ct = 500
	}
	return uint16(ct)
}
