package main

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/config"
	"github.com/orrery/orrery/internal/gameplay"
	"github.com/orrery/orrery/internal/physics"
	"github.com/orrery/orrery/internal/world"
)

func sessionOptions(cfg *config.Config) world.Options {
	s, p := cfg.Ship, cfg.Pinball
	return world.Options{
		Physics: physics.Config{
			Gravity:          mgl32.Vec3(cfg.Physics.Gravity),
			FixedStep:        cfg.Physics.FixedStep,
			SolverIterations: cfg.Physics.SolverIterations,
		},
		MaxSubSteps: cfg.Physics.MaxSubSteps,
		Ship: gameplay.ShipConfig{
			Thrust:          s.Thrust,
			ReverseImpulse:  s.ReverseImpulse,
			Torque:          s.Torque,
			MaxSpeed:        s.MaxSpeed,
			MaxAngularSpeed: s.MaxAngularSpeed,
			WindFloor:       s.WindFloor,
			ComboBrakeRatio: s.ComboBrakeRatio,
			BrakeDivisor:    s.BrakeDivisor,
			HaltSpeed:       s.HaltSpeed,
			HaltAngular:     s.HaltAngular,
			Reload:          s.Reload,
			Range:           s.Range,
			Health:          s.Health,
			DamagePerShot:   s.DamagePerShot,
		},
		Pinball: gameplay.PinballConfig{
			Lives:           p.Lives,
			FlipperSpeed:    p.FlipperSpeed,
			FlipperMaxAngle: p.FlipperMaxAngle,
			PlungerRate:     p.PlungerRate,
			PlungerMax:      p.PlungerMax,
			LaunchDirection: mgl32.Vec3(p.LaunchDirection),
			DrainZ:          p.DrainZ,
			BumperPoints:    p.BumperPoints,
			BumperKick:      p.BumperKick,
		},
	}
}
