package controller

import (
	"errors"
	"strings"

	"github.com/menta2k/vision-app/pkg/capture"
	"github.com/menta2k/vision-app/pkg/types"
)

// Spoken messages, in Brazilian Portuguese.
const (
	MsgReady                    = "Aplicativo pronto. Toque em qualquer lugar para descrever a roupa. Toque e segure para repetir a última descrição."
	MsgStartupCredentialMissing = "Configuração da chave da OpenAI ausente. Por favor, configure a chave no app."
	MsgMicPermissionDenied      = "Permissão do microfone negada. Você pode ativar nas configurações do dispositivo."
	MsgCameraPermission         = "Permissão da câmera é necessária."
	MsgCredentialMissing        = "Chave da OpenAI não configurada."
	MsgCameraNotReady           = "Câmera não está pronta."
	MsgCaptureFailed            = "Não foi possível capturar a imagem."
	MsgProcessingFailed         = "Falha ao processar a imagem."
	MsgProcessing               = "Processando, aguarde."
	MsgNothingToReplay          = "Nenhuma descrição disponível ainda. Toque para descrever."

	ErrorPrefix    = "Ocorreu um erro: "
	UnknownError   = "erro desconhecido"
	MaxErrorLength = 220
)

// SpokenMessage maps a pipeline failure to the sentence read to the user.
func SpokenMessage(err error) string {
	switch types.KindOf(err) {
	case types.KindPermissionDenied:
		return MsgCameraPermission
	case types.KindConfiguration:
		return MsgCredentialMissing
	case types.KindCaptureFailure:
		if errors.Is(err, capture.ErrCameraNotReady) {
			return MsgCameraNotReady
		}
		return MsgCaptureFailed
	case types.KindProcessingFailure:
		return MsgProcessingFailed
	}
	return FormatError(err)
}

// FormatError prefixes the error text and cuts it to MaxErrorLength runes,
// marking the cut with an ellipsis.
func FormatError(err error) string {
	msg := ""
	if err != nil {
		msg = strings.TrimSpace(err.Error())
	}
	if msg == "" {
		msg = UnknownError
	}
	return ErrorPrefix + Truncate(msg, MaxErrorLength)
}

// Truncate cuts s to at most n runes and appends "…" if it was cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
