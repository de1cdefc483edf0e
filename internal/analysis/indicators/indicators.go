// Package indicators содержит чистые функции расчета индикаторов по ряду цен.
package indicators

import (
	"github.com/markcheno/go-talib"
)

// rsiEpsilon защищает деление при нулевых средних потерях
const rsiEpsilon = 1e-9

// EMA рассчитывает экспоненциальную скользящую среднюю с alpha = 2/(length+1).
// Первое значение равно первому элементу ряда, далее out[i] = alpha*x[i] + (1-alpha)*out[i-1].
func EMA(series []float64, length int) []float64 {
	return ewm(series, 2/float64(length+1))
}

// Last возвращает последнее значение ряда EMA
func Last(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// RSI рассчитывает индекс относительной силы со сглаживанием Уайлдера (alpha = 1/length).
// Сглаживание начинается с первого приращения, out[0] равен 50: для него приращения нет.
func RSI(series []float64, length int) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	out[0] = 50
	if len(series) < 2 {
		return out
	}

	gains := make([]float64, len(series)-1)
	losses := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		delta := series[i] - series[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	alpha := 1 / float64(length)
	avgGain := ewm(gains, alpha)
	avgLoss := ewm(losses, alpha)

	for i := range avgGain {
		rs := avgGain[i] / (avgLoss[i] + rsiEpsilon)
		out[i+1] = clamp(100-100/(1+rs), 0, 100)
	}
	return out
}

// AverageVolume возвращает среднее значение последних period объемов
func AverageVolume(volumes []float64, period int) float64 {
	if len(volumes) == 0 || period <= 0 {
		return 0
	}
	if len(volumes) > period {
		volumes = volumes[len(volumes)-period:]
	}
	sma := talib.Sma(volumes, len(volumes))
	return sma[len(sma)-1]
}

func ewm(series []float64, alpha float64) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = alpha*series[i] + (1-alpha)*out[i-1]
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
