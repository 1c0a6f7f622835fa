package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"arena-client/internal/audio"
	"arena-client/internal/client"
	"arena-client/internal/config"
	"arena-client/internal/observe"
	"arena-client/internal/render"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  ARENA CLIENT")
	log.Println("🎮 ================================")

	// Load centralized configuration
	appConfig := config.Load()
	videoCfg := appConfig.Video
	netCfg := appConfig.Net

	log.Printf("📡 Server: %s (path %s)", netCfg.ServerURL, netCfg.WSPath)
	log.Printf("🎮 Surface: %dx%d @ %d FPS", videoCfg.Width, videoCfg.Height, videoCfg.FPS)

	// The session starts only once a display name is confirmed.
	username := netCfg.Username
	if username == "" {
		username = promptUsername()
	}
	if username == "" {
		log.Fatal("❌ No display name given")
	}

	renderer := render.New(videoCfg)

	// Frames go to a raw RGBA pipe when requested, otherwise they are counted
	// and discarded (headless run).
	var sink render.FrameSink
	var writer *render.AsyncFrameWriter
	if out := os.Getenv("ARENA_FRAME_OUT"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			log.Fatalf("❌ Cannot open frame output %s: %v", out, err)
		}
		writer = render.NewAsyncFrameWriter(f)
		writer.Start(videoCfg.FPS)
		sink = writer
		log.Printf("📡 Raw RGBA frames to %s", out)
	} else {
		sink = &render.NoopSink{}
	}

	cues := audio.NewCues(appConfig.Audio)

	session := client.NewSession(appConfig, renderer, sink, cues)

	// Start debug server
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		observe.StartDebugServer(observe.DefaultConfig(), func() map[string]interface{} {
			status := session.Status()
			if writer != nil {
				status["frameWriter"] = writer.Stats()
			}
			return status
		})
	}

	if err := session.Start(username); err != nil {
		log.Fatalf("❌ Could not start session: %v", err)
	}

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Client running! Press Ctrl+C to stop.")
	select {
	case <-quit:
		log.Println("🛑 Shutting down...")
	case <-session.Done():
		log.Println("🛑 Session ended")
	}

	session.Close()
	if err := sink.Close(); err != nil {
		log.Printf("⚠️ Closing frame sink: %v", err)
	}
	log.Println("👋 Goodbye!")
}

func promptUsername() string {
	fmt.Print("Display name: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}
