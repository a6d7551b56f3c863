package exchange

import (
	"context"
	"sync"

	"github.com/assist-by/conduit/internal/domain"
)

// KlinesResult는 심볼 하나의 캔들 조회 결과입니다
type KlinesResult struct {
	Candles domain.CandleList
	Err     error
}

// KlineSource는 캔들 조회만 필요한 호출자를 위한 인터페이스입니다.
// Exchange는 모두 KlineSource를 만족합니다.
type KlineSource interface {
	GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error)
}

const defaultBatchConcurrency = 4

// FetchKlinesMany는 여러 심볼의 캔들을 동시에 조회합니다.
// 한 심볼이 실패해도 나머지 결과는 그대로 반환됩니다.
func FetchKlinesMany(ctx context.Context, ex KlineSource, symbols []string, interval domain.TimeInterval, limit int) map[string]KlinesResult {
	results := make(map[string]KlinesResult, len(symbols))
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, defaultBatchConcurrency)
	)

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			var res KlinesResult
			select {
			case sem <- struct{}{}:
				res.Candles, res.Err = ex.GetKlines(ctx, symbol, interval, limit)
				<-sem
			case <-ctx.Done():
				res.Err = ctx.Err()
			}

			mu.Lock()
			results[symbol] = res
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return results
}
