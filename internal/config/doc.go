// Package config loads trellis runtime settings.
//
// Settings come from trellis.yaml (any format viper reads works) and can be
// overridden by TRELLIS_ environment variables, with dots in keys replaced
// by underscores:
//
//	scheduler:
//	  frame_interval: 16ms
//	  max_updates_per_flush: 3
//	metrics:
//	  enabled: true
//	  namespace: trellis
//	log:
//	  level: info
//	  format: text
//	serve:
//	  addr: localhost:8080
//
// Usage:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Frame:", cfg.Scheduler.FrameInterval)
package config
