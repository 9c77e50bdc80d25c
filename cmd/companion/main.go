// Command companion runs the paired-device sync stack end to end over an
// in-memory link: a simulated host (phone side) answers the device gateway,
// which fetches a day's program, drives a workout session and pushes the
// result back.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/hundredday/companion/internal/config"
	"github.com/hundredday/companion/internal/gateway"
	"github.com/hundredday/companion/internal/logging"
	"github.com/hundredday/companion/internal/peer"
	"github.com/hundredday/companion/internal/program"
	"github.com/hundredday/companion/internal/workout"
)

func main() {
	configPath := pflag.String("config", ".", "directory containing config.yaml")
	day := pflag.Int("day", 1, "program day to simulate")
	restSeconds := pflag.Int("rest", 0, "override rest seconds (0 = use config)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *restSeconds > 0 {
		cfg.RestSeconds = *restSeconds
	}

	logger := logging.New(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
	logger.Printf("companion: starting simulation for day %d", *day)

	hostLink, deviceLink := peer.NewLoopbackPair(logger, "host", "device")
	defer hostLink.Close()
	defer deviceLink.Close()

	host := newHostSim(hostLink, logger)
	host.start()

	gw := gateway.New(deviceLink, logger)
	gw.Start()
	defer gw.Close()

	gw.OnAuthorizationChanged(func(authorized bool) {
		logger.Printf("companion: peer authorization -> %t", authorized)
	})
	gw.OnCurrentDay(func(d int) {
		logger.Printf("companion: peer current day -> %d", d)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := gw.SendActivitySelection(ctx, *day, program.ActivityTraining); err != nil {
		logger.Printf("companion: activity selection failed: %v", err)
		os.Exit(1)
	}

	bundle, err := gw.RequestWorkoutProgram(ctx, *day)
	if err != nil {
		logger.Printf("companion: program fetch failed, cannot start workout: %v", err)
		os.Exit(1)
	}

	session := workout.NewSession(workout.Config{
		Day:           bundle.Day,
		ExecutionType: bundle.ExecutionType,
		TurboRule:     host.turboRule(),
		Exercises:     bundle.Exercises,
		PlannedCount:  bundle.PlannedCount,
		RestSeconds:   cfg.RestSeconds,
		Logger:        logger,
	})

	for {
		step, ok := session.CurrentStep()
		if !ok {
			break
		}
		logger.Printf("companion: completing %s", step)
		session.CompleteCurrentStep()
		if session.RestPending() {
			// The simulation does not wait out real rest periods.
			session.HandleRestTimerFinish()
		}
	}

	result := session.Result(false)
	if result == nil {
		logger.Printf("companion: session not completed, interrupting")
		result = session.Result(true)
	}

	comment := "simulated session"
	err = gw.PushWorkoutResult(ctx, *day, *result, session.EffectiveType(), session.Exercises(), &comment)
	if err != nil {
		logger.Printf("companion: result push failed: %v", err)
		os.Exit(1)
	}

	logger.Printf("companion: done, %d units completed", result.CompletedUnits)
	fmt.Printf("day %d: %d units completed\n", *day, result.CompletedUnits)
}
