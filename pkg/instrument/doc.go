// Package instrument provides the embeddable control surface for a
// microfluidic nanoparticle synthesis instrument.
//
// It wires the validation, register encoding, transaction, and session
// layers over a controller transport, which is either a live S7 connection
// or the in-memory simulator.
//
// Example usage:
//
//	cfg := instrument.DefaultConfig()
//	cfg.Simulate = true
//	inst, err := instrument.New(cfg, instrument.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close()
//
//	result, err := inst.Propose(instrument.RunConfiguration{ ... })
package instrument
