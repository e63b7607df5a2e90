//go:build integration
// +build integration

package integration

import (
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/solaiys/MIOpen/internal/config"
	"github.com/solaiys/MIOpen/internal/logger"
	"github.com/solaiys/MIOpen/internal/solver"
	"github.com/solaiys/MIOpen/pkg/miopen"
)

// newTestApp assembles a full host-backed context the way an embedding
// service would, with the find-db persisted under dbPath.
func newTestApp(t *testing.T, dbPath string) (*miopen.Context, *fxtest.App) {
	t.Helper()
	var ctx *miopen.Context
	app := fxtest.New(t,
		fx.Provide(
			func() (*config.Config, error) {
				cfg := config.Default()
				cfg.Logger.Verbosity = "debug"
				cfg.Find.DbPath = dbPath
				return cfg, nil
			},
			func(cfg *config.Config) (*zap.Logger, error) {
				return logger.New(cfg.Logger.Verbosity)
			},
			func(cfg *config.Config, log *zap.Logger) *miopen.Context {
				return miopen.NewHostContext("gfx908", miopen.Options{Config: cfg, Logger: log})
			},
		),
		fx.Populate(&ctx),
	)
	app.RequireStart()
	return ctx, app
}

func convCase(t *testing.T) (xDesc, wDesc, yDesc miopen.TensorDescriptor,
	x, w, y []byte, cd miopen.ConvolutionDescriptor) {

	t.Helper()
	xDesc = miopen.NewTensorDescriptor(miopen.Float, miopen.NCHW, 1, 8, 8, 8)
	wDesc = miopen.NewTensorDescriptor(miopen.Float, miopen.NCHW, 4, 8, 3, 3)
	yDesc = miopen.NewTensorDescriptor(miopen.Float, miopen.NCHW, 1, 4, 6, 6)
	cd, err := miopen.NewConvolutionDescriptor([]int{0, 0}, []int{1, 1}, []int{1, 1}, 1)
	require.NoError(t, err)
	x = make([]byte, xDesc.NumBytes())
	w = make([]byte, wDesc.NumBytes())
	y = make([]byte, yDesc.NumBytes())
	for i := 0; i < len(x)/4; i++ {
		binary.LittleEndian.PutUint32(x[i*4:], math.Float32bits(float32(i%17)))
	}
	return
}

func TestConvolutionFind_EndToEnd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "find.yaml")
	ctx, app := newTestApp(t, dbPath)
	defer app.RequireStop()

	xDesc, wDesc, yDesc, x, w, y, cd := convCase(t)
	ws := make([]byte, 1<<22)

	results, err := ctx.FindConvolutionForwardAlgorithm(
		xDesc, x, wDesc, w, cd, yDesc, y, 10, ws, false)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Time, results[i].Time)
	}

	algo, err := solver.AlgorithmFromDirectionalString(results[0].Algorithm)
	require.NoError(t, err)
	require.NoError(t, ctx.ConvolutionForward(
		1.0, xDesc, x, wDesc, w, cd, algo, 0.0, yDesc, y, ws))

	t.Run("immediate mode sees the recorded results", func(t *testing.T) {
		sols, err := ctx.ConvolutionForwardGetSolution(xDesc, wDesc, cd, yDesc, 10)
		require.NoError(t, err)
		require.NotEmpty(t, sols)
		for _, s := range sols {
			assert.False(t, s.Estimated, "recorded times are measurements")
		}
	})

	t.Run("results survive a restart", func(t *testing.T) {
		ctx2, app2 := newTestApp(t, dbPath)
		defer app2.RequireStop()

		sols, err := ctx2.ConvolutionForwardGetSolution(xDesc, wDesc, cd, yDesc, 10)
		require.NoError(t, err)
		require.NotEmpty(t, sols)
		for _, s := range sols {
			assert.False(t, s.Estimated)
		}
	})
}

func TestImmediateAndBias_EndToEnd(t *testing.T) {
	ctx, app := newTestApp(t, "")
	defer app.RequireStop()

	t.Run("immediate naive forward", func(t *testing.T) {
		xDesc, wDesc, yDesc, x, w, y, cd := convCase(t)
		id := solver.FromName("ConvDirectNaiveConvFwd")
		require.True(t, id.Valid())
		require.NoError(t, ctx.ConvolutionForwardImmediate(
			xDesc, x, wDesc, w, cd, yDesc, y, nil, id))
	})

	t.Run("backward bias reduction", func(t *testing.T) {
		dyDesc := miopen.NewTensorDescriptor(miopen.Float, miopen.NCHW, 1, 2, 2, 2)
		dbDesc := miopen.NewTensorDescriptor(miopen.Float, miopen.NCHW, 1, 2, 1, 1)
		dy := make([]byte, dyDesc.NumBytes())
		db := make([]byte, dbDesc.NumBytes())
		for i := 0; i < 8; i++ {
			binary.LittleEndian.PutUint32(dy[i*4:], math.Float32bits(1))
		}

		require.NoError(t, ctx.ConvolutionBackwardBias(1.0, dyDesc, dy, 0.0, dbDesc, db))
		for ch := 0; ch < 2; ch++ {
			got := math.Float32frombits(binary.LittleEndian.Uint32(db[ch*4:]))
			assert.Equal(t, float32(4), got)
		}
	})

	t.Run("fusion plan lookup", func(t *testing.T) {
		plan, err := miopen.NewFusionPlan(miopen.ConvForwardOp{FilterH: 1, FilterW: 1, AlgoName: "Direct"})
		require.NoError(t, err)
		require.NoError(t, plan.AddOp(miopen.BiasForwardOp{}))
		require.NoError(t, plan.AddOp(miopen.ActivForwardOp{}))

		kernel, err := plan.KernelName()
		require.NoError(t, err)
		assert.Equal(t, "gcnAsmConv1x1U", kernel)
	})
}
