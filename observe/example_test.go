package observe_test

import (
	"context"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/jonwraymond/navkit/observe"
)

func ExampleWrap() {
	reader := sdkmetric.NewManualReader()
	metrics, _ := observe.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("example"))
	mw := observe.NewMiddleware(observe.NopTracer(), metrics, observe.NopLogger())

	build := observe.Wrap(mw, func(ctx context.Context, meta observe.BuildMeta) (string, error) {
		return "built " + meta.BuilderSet, nil
	})

	out, err := build(context.Background(), observe.BuildMeta{BuilderSet: "default"})
	fmt.Println(out, err)
	// Output: built default <nil>
}

func ExampleBuildMeta_SpanName() {
	fmt.Println(observe.BuildMeta{BuilderSet: "default"}.SpanName())
	// Output: sitemap.build.default
}
