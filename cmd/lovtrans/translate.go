package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/orchestrator"
	"github.com/nadzzz/lovtrans/internal/settings"
	"github.com/nadzzz/lovtrans/internal/voice"
)

type translateOpts struct {
	to     string
	speak  bool
	listen bool
}

func newTranslateCmd(a *app) *cobra.Command {
	var opts translateOpts
	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate a phrase into the active target language",
		Long: `Translate a phrase into the destination language, or the language given
with --to (one of the three configured languages). When neither the target
nor the mother language is the common language, the phrase is also
translated into the common language.

The phrase is taken from the arguments, from the microphone with --listen,
or from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.translate(cmd.Context(), cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.to, "to", "", "target language code (default: destination language)")
	cmd.Flags().BoolVar(&opts.speak, "speak", false, "speak the translation aloud")
	cmd.Flags().BoolVar(&opts.listen, "listen", false, "capture the phrase from the microphone")
	return cmd
}

func (a *app) translate(ctx context.Context, cmd *cobra.Command, args []string, opts translateOpts) error {
	orch, closeProvider := a.newOrchestrator()
	defer closeProvider()

	kv, closeKV, err := a.newKV(ctx, true)
	if err != nil {
		return err
	}
	defer closeKV()

	session := orchestrator.NewSession(ctx, orch, settings.NewStore(kv, "", nil))
	if opts.to != "" {
		code, ok := lang.Parse(opts.to)
		if !ok {
			return fmt.Errorf("unsupported language %q", opts.to)
		}
		if err := session.SetTarget(code); err != nil {
			return err
		}
	}

	text := strings.Join(args, " ")
	switch {
	case opts.listen:
		text, err = a.listen(ctx, cmd, session.Settings().MotherLanguage)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "heard: %s\n", text)
	case text == "":
		in, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(in)
	}

	session.SetInput(text)
	if _, err := session.Submit(ctx); err != nil {
		return errors.New(orchestrator.UserMessage(err))
	}

	view := session.View()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s] %s\n", view.Target, view.Output)
	if view.SecondaryLanguage != "" {
		fmt.Fprintf(out, "[%s] %s\n", view.SecondaryLanguage, view.Secondary)
	}

	if opts.speak {
		a.speak(cmd, view.Output, view.Target)
	}
	return nil
}

// listen records one utterance in the mother language and returns its
// final transcript.
func (a *app) listen(ctx context.Context, cmd *cobra.Command, mother lang.Code) (string, error) {
	tr := a.newTranscriber()
	if tr == nil {
		return "", errors.New("speech-to-text is disabled (stt.enabled)")
	}
	defer tr.Close()

	capture := voice.NewCapture(
		voice.NewMicRecognizer(tr, a.cfg.Voice.RecordCommand, a.cfg.Voice.RecordSeconds),
		lang.VoiceLocale(mother),
	)
	if !capture.Supported() {
		return "", fmt.Errorf("voice capture is not supported: %s not found", a.cfg.Voice.RecordCommand)
	}

	var final string
	var captureErr *voice.CaptureError
	capture.OnResult(func(text string, isFinal bool) {
		if isFinal {
			final = text
		}
	})
	capture.OnError(func(err *voice.CaptureError) { captureErr = err })

	if a.cfg.Voice.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Voice.Timeout)
		defer cancel()
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "listening for %ds...\n", a.cfg.Voice.RecordSeconds)
	capture.Start(ctx)
	capture.Wait()

	if captureErr != nil {
		return "", captureErr
	}
	if final == "" {
		return "", &voice.CaptureError{Code: voice.ErrNoSpeech}
	}
	return final, nil
}

// speak plays text and waits for it to finish. Playback failures are
// reported but do not fail the command.
func (a *app) speak(cmd *cobra.Command, text string, code lang.Code) {
	synth := a.newSynthesizer()
	if synth == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "text-to-speech is disabled (tts.enabled)")
		return
	}
	defer synth.Close()

	playback := voice.NewPlayback(voice.NewPiperSpeaker(synth, a.cfg.Voice.PlayCommand), lang.VoiceLocale(code))
	if !playback.Supported() {
		fmt.Fprintf(cmd.ErrOrStderr(), "playback is not supported: %s not found\n", a.cfg.Voice.PlayCommand)
		return
	}
	playback.OnError(func(msg string) {
		fmt.Fprintln(cmd.ErrOrStderr(), "playback failed:", msg)
	})
	playback.Speak(text)
	playback.Wait()
}
