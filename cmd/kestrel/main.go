// Command kestrel is the UCI-facing chess engine: it loads an ONNX
// policy/value network and speaks the UCI protocol over stdin/stdout,
// exactly the role cmd/xionghan-local's HTTP handler played for the
// teacher's own game, minus the browser and static file serving.
package main

import (
	"flag"
	"net/http"
	"os"

	"kestrel/internal/logging"
	"kestrel/internal/nn"
	"kestrel/internal/telemetry"
	"kestrel/internal/uci"
)

func main() {
	modelPath := flag.String("model", "kestrel.onnx", "path to ONNX model file")
	libPath := flag.String("lib", "", "path to the onnxruntime shared library (empty: already initialized)")
	logLevel := flag.String("loglevel", "info", "log level: debug, info, warn, error")
	telemetryAddr := flag.String("telemetry-addr", "", "if set, serve a live search websocket feed at ws://<addr>/ws")
	flag.Parse()

	logging.Init(*logLevel)

	evaluator, err := nn.NewONNXEvaluator(*modelPath, *libPath, nn.DefaultProviders())
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("kestrel: failed to initialize NN")
	}
	defer evaluator.Close()

	engine := uci.NewEngine(evaluator)

	if *telemetryAddr != "" {
		hub := telemetry.NewHub()
		done := make(chan struct{})
		defer close(done)
		go hub.Run(done)

		mux := http.NewServeMux()
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			telemetry.ServeWS(hub, w, r)
		})
		go func() {
			if err := http.ListenAndServe(*telemetryAddr, mux); err != nil {
				logging.Logger.Error().Err(err).Msg("kestrel: telemetry server exited")
			}
		}()
		engine.Telemetry = hub
		logging.Logger.Info().Str("addr", *telemetryAddr).Msg("kestrel: telemetry feed listening")
	}

	uci.Loop(engine, os.Stdin, os.Stdout)
}
