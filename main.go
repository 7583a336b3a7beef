package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/navkit/navsys"
	"github.com/milk9111/navkit/prefabs"
)

func main() {
	config := flag.String("config", "", "navigation yaml file (defaults to prefabs/navigation.yaml)")
	meshName := flag.String("mesh", "", "mesh file to load, overriding the config")
	debug := flag.Bool("debug", false, "enable debug mode")
	watch := flag.Bool("watch", false, "reload the mesh when it changes on disk")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	var (
		spec *prefabs.NavigationSpec
		err  error
	)
	if *config != "" {
		spec, err = prefabs.ReadNavigationSpec(*config)
	} else {
		spec, err = prefabs.LoadNavigationSpec(prefabs.NavigationFile)
	}
	if err != nil {
		log.Fatal(err)
	}
	if *meshName != "" {
		spec.Mesh = *meshName
	}

	sys := navsys.New(spec.DataPath)
	if err := sys.Configure(spec); err != nil {
		log.Printf("mesh %s not loaded: %v", spec.Mesh, err)
	}

	var watcher *prefabs.Watcher
	if *watch || spec.Watch {
		watcher, err = prefabs.NewWatcher(spec.DataPath)
		if err != nil {
			log.Printf("watch %s: %v", spec.DataPath, err)
		} else {
			defer watcher.Close()
		}
	}

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("navkit")

	game := NewGame(sys, spec, watcher, *debug)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
